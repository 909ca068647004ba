package inventory

import "assetmanagement/internal/platform/notify"

type Operation string

const (
	OpAddBorrower        Operation = "add_borrower"
	OpDeactivateBorrower Operation = "deactivate_borrower"
	OpAddAsset           Operation = "add_asset"
	OpRemoveAsset        Operation = "remove_asset"
	OpModifyAssetInstock Operation = "modify_asset_instock"
	OpBorrowAsset        Operation = "borrow_asset"
	OpReturnAsset        Operation = "return_asset"
)

var Operations = []Operation{
	OpAddBorrower,
	OpDeactivateBorrower,
	OpAddAsset,
	OpRemoveAsset,
	OpModifyAssetInstock,
	OpBorrowAsset,
	OpReturnAsset,
}

// Subscribers get no arguments; re-query the service.
type Events struct {
	AddBorrower        *notify.Notifier
	DeactivateBorrower *notify.Notifier
	AddAsset           *notify.Notifier
	RemoveAsset        *notify.Notifier
	ModifyAssetInstock *notify.Notifier
	BorrowAsset        *notify.Notifier
	ReturnAsset        *notify.Notifier
}

func newEvents() *Events {
	return &Events{
		AddBorrower:        notify.New(string(OpAddBorrower)),
		DeactivateBorrower: notify.New(string(OpDeactivateBorrower)),
		AddAsset:           notify.New(string(OpAddAsset)),
		RemoveAsset:        notify.New(string(OpRemoveAsset)),
		ModifyAssetInstock: notify.New(string(OpModifyAssetInstock)),
		BorrowAsset:        notify.New(string(OpBorrowAsset)),
		ReturnAsset:        notify.New(string(OpReturnAsset)),
	}
}

func (e *Events) Of(op Operation) *notify.Notifier {
	switch op {
	case OpAddBorrower:
		return e.AddBorrower
	case OpDeactivateBorrower:
		return e.DeactivateBorrower
	case OpAddAsset:
		return e.AddAsset
	case OpRemoveAsset:
		return e.RemoveAsset
	case OpModifyAssetInstock:
		return e.ModifyAssetInstock
	case OpBorrowAsset:
		return e.BorrowAsset
	case OpReturnAsset:
		return e.ReturnAsset
	default:
		return nil
	}
}
