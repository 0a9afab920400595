package domain

// Address belongs to the external address store; this core only reads it
// and copies snapshots onto orders.
type Address struct {
	ID              string `json:"id"`
	UserID          string `json:"userId"`
	CompleteAddress string `json:"completeAddress"`
	Landmark        string `json:"landmark"`
	City            string `json:"city"`
	State           string `json:"state"`
	Pincode         string `json:"pincode"`
	Nickname        string `json:"nickname"`
	IsDefault       bool   `json:"isDefault"`
}

// AddressSnapshot is the copied shipping address stored on an order.
type AddressSnapshot struct {
	CompleteAddress string `json:"completeAddress"`
	Landmark        string `json:"landmark"`
	City            string `json:"city"`
	State           string `json:"state"`
	Pincode         string `json:"pincode"`
}

func (a *Address) Snapshot() AddressSnapshot {
	return AddressSnapshot{
		CompleteAddress: a.CompleteAddress,
		Landmark:        a.Landmark,
		City:            a.City,
		State:           a.State,
		Pincode:         a.Pincode,
	}
}
