package inventory

import "assetmanagement/internal/platform/db"

type AddBorrowerRequest struct {
	Name *string `json:"name" binding:"required"`
}

type AddAssetRequest struct {
	Name     *string `json:"name" binding:"required"`
	Quantity int     `json:"quantity"`
}

// RemoveAssetRequest omits quantity to remove everything on record.
type RemoveAssetRequest struct {
	Quantity *int `json:"quantity,omitempty"`
}

type ModifyInstockRequest struct {
	Delta int `json:"delta"`
}

type BorrowRequest struct {
	Borrower *string `json:"borrower" binding:"required"`
	Asset    *string `json:"asset" binding:"required"`
	Quantity int     `json:"quantity"`
	// "2006-01-02"
	DateDue string `json:"datedue" binding:"required"`
}

type ReturnRequest struct {
	Borrower *string `json:"borrower" binding:"required"`
	Asset    *string `json:"asset" binding:"required"`
}

type BorrowerNamesResponse struct {
	Names []string `json:"names"`
}

type AssetResponse struct {
	Name    string `json:"name"`
	Total   int    `json:"total"`
	Instock int    `json:"instock"`
}

type LoanResponse struct {
	ID         int64   `json:"id"`
	Borrower   string  `json:"borrower"`
	Asset      string  `json:"asset"`
	Quantity   int     `json:"quantity"`
	DateDue    db.Date `json:"datedue"`
	IsReturned bool    `json:"is_returned"`
}

type ReturnResponse struct {
	Borrower string `json:"borrower"`
	Asset    string `json:"asset"`
	Restored int    `json:"restored"`
}

func toAssetResponse(a Asset) AssetResponse {
	return AssetResponse{Name: a.Name, Total: a.Total, Instock: a.Instock}
}

func toLoanResponse(v LoanView) LoanResponse {
	return LoanResponse{
		ID:         v.ID,
		Borrower:   v.BorrowerName,
		Asset:      v.AssetName,
		Quantity:   v.Quantity,
		DateDue:    v.DateDue,
		IsReturned: v.IsReturned,
	}
}
