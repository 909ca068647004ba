package inventory

import "assetmanagement/internal/platform/db"

type Borrower struct {
	ID       int64
	Name     string
	IsActive bool
}

type Asset struct {
	ID      int64
	Name    string
	Total   int
	Instock int
}

type Loan struct {
	ID         int64
	BorrowerID int64
	AssetID    int64
	Quantity   int
	DateDue    db.Date
	IsReturned bool
}

type LoanView struct {
	ID           int64
	BorrowerName string
	AssetName    string
	Quantity     int
	DateDue      db.Date
	IsReturned   bool
}

// nil name = no filter; pointer to "" = the empty name
type LoanFilter struct {
	Borrower    *string
	Asset       *string
	ActiveOnly  bool
	OverdueOnly bool // implies ActiveOnly
}

type AssetFilter struct {
	ActiveOnly  bool // total > 0
	InstockOnly bool // instock > 0
}
