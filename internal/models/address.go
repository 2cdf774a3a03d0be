// internal/models/address.go
package models

// Address is the request address collected by the wizard. The administrative
// hierarchy runs district > municipality > parish > locality.
type Address struct {
	PostalCode   string `json:"postalCode"`
	Street       string `json:"street"`
	Door         string `json:"door"`
	Floor        string `json:"floor"`
	District     string `json:"district"`
	Municipality string `json:"municipality"`
	Parish       string `json:"parish"`
	Locality     string `json:"locality"`
}

// ClearExceptPostal blanks every field but the postal code.
func (a *Address) ClearExceptPostal() {
	*a = Address{PostalCode: a.PostalCode}
}

// IsZero reports whether no field is set.
func (a Address) IsZero() bool {
	return a == Address{}
}

// AddressCandidate is one entry of the postal-code directory.
type AddressCandidate struct {
	PostalCode   string `json:"postal_code"`
	Street       string `json:"street"`
	District     string `json:"district"`
	Municipality string `json:"municipality"`
	Parish       string `json:"parish"`
	Locality     string `json:"locality"`
}

// ApplyTo copies the candidate onto addr. Door and floor are left alone.
func (c AddressCandidate) ApplyTo(addr *Address) {
	addr.PostalCode = c.PostalCode
	addr.Street = c.Street
	addr.District = c.District
	addr.Municipality = c.Municipality
	addr.Parish = c.Parish
	addr.Locality = c.Locality
}
