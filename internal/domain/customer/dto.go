// internal/domain/customer/dto.go
package customer

import (
	"fmt"
	"strings"
)

type CreateCustomerRequest struct {
	FirstName       string   `json:"first_name" binding:"required,max=255"`
	LastName        string   `json:"last_name" binding:"required,max=255"`
	Email           string   `json:"email" binding:"required,max=255"`
	Address         string   `json:"address"`
	Product         Product  `json:"product"`
	Status          Status   `json:"status"`
	Tags            []string `json:"tags"`
	AccountIDs      []string `json:"account_ids" binding:"max=4"`
	OrderDate       Date     `json:"order_date"`
	FirstContact    Date     `json:"first_contact"`
	InvoiceSent     bool     `json:"invoice_sent"`
	InvoicePaid     bool     `json:"invoice_paid"`
	MemberAccess    bool     `json:"member_access"`
	DocumentsSent   bool     `json:"documents_sent"`
	DocumentsSigned bool     `json:"documents_signed"`

	// Optional first entry for the comment history.
	Comment string `json:"comment"`
}

// UpdateCustomerRequest replaces only the fields that are set.
type UpdateCustomerRequest struct {
	FirstName       *string   `json:"first_name" binding:"omitempty,max=255"`
	LastName        *string   `json:"last_name" binding:"omitempty,max=255"`
	Email           *string   `json:"email" binding:"omitempty,max=255"`
	Address         *string   `json:"address"`
	Product         *Product  `json:"product"`
	Status          *Status   `json:"status"`
	Tags            *[]string `json:"tags"`
	AccountIDs      *[]string `json:"account_ids"`
	OrderDate       *Date     `json:"order_date"`
	FirstContact    *Date     `json:"first_contact"`
	InvoiceSent     *bool     `json:"invoice_sent"`
	InvoicePaid     *bool     `json:"invoice_paid"`
	MemberAccess    *bool     `json:"member_access"`
	DocumentsSent   *bool     `json:"documents_sent"`
	DocumentsSigned *bool     `json:"documents_signed"`
}

type TagRequest struct {
	Tag string `json:"tag" binding:"required"`
}

// ListFilters selects customers by tag and product membership. Empty means no filtering.
type ListFilters struct {
	Tags     []string `form:"tags"`
	Products []string `form:"products"`
}

type CustomerListResponse struct {
	Customers []Customer `json:"customers"`
	Total     int        `json:"total"`
	Filtered  int        `json:"filtered"`

	// Rows of the persisted table that could not be read.
	Warnings []string `json:"warnings,omitempty"`
}

// Validate checks required fields and vocabulary membership and fills defaults.
func (r *CreateCustomerRequest) Validate() error {
	r.FirstName = strings.TrimSpace(r.FirstName)
	r.LastName = strings.TrimSpace(r.LastName)
	r.Email = strings.TrimSpace(r.Email)
	if r.FirstName == "" || r.LastName == "" || r.Email == "" {
		return fmt.Errorf("first name, last name and email are required")
	}
	if r.Product == "" {
		r.Product = ProductNone
	}
	if r.Status == "" {
		r.Status = StatusInterested
	}
	if !r.Product.Valid() {
		return fmt.Errorf("unknown product %q", r.Product)
	}
	if !r.Status.Valid() {
		return fmt.Errorf("unknown status %q", r.Status)
	}
	tags, err := normalizeTags(r.Tags)
	if err != nil {
		return err
	}
	r.Tags = tags
	if len(r.AccountIDs) > len(accountColumns) {
		return fmt.Errorf("at most %d account ids", len(accountColumns))
	}
	return nil
}

// ToCustomer builds the row to insert; ID is assigned by the store.
func (r *CreateCustomerRequest) ToCustomer() Customer {
	c := Customer{
		FirstName:       r.FirstName,
		LastName:        r.LastName,
		Email:           r.Email,
		Address:         r.Address,
		Product:         r.Product,
		Status:          r.Status,
		Tags:            append([]string{}, r.Tags...),
		OrderDate:       r.OrderDate,
		FirstContact:    r.FirstContact,
		InvoiceSent:     r.InvoiceSent,
		InvoicePaid:     r.InvoicePaid,
		MemberAccess:    r.MemberAccess,
		DocumentsSent:   r.DocumentsSent,
		DocumentsSigned: r.DocumentsSigned,
	}
	copy(c.AccountIDs[:], r.AccountIDs)
	return c
}

// Apply writes the set fields onto c and returns the columns that were supplied.
// Nothing is written when validation fails.
func (r *UpdateCustomerRequest) Apply(c *Customer) ([]string, error) {
	next := *c
	next.Tags = append([]string{}, c.Tags...)
	var cols []string

	if r.FirstName != nil {
		v := strings.TrimSpace(*r.FirstName)
		if v == "" {
			return nil, fmt.Errorf("first name must not be empty")
		}
		next.FirstName = v
		cols = append(cols, ColFirstName)
	}
	if r.LastName != nil {
		v := strings.TrimSpace(*r.LastName)
		if v == "" {
			return nil, fmt.Errorf("last name must not be empty")
		}
		next.LastName = v
		cols = append(cols, ColLastName)
	}
	if r.Email != nil {
		v := strings.TrimSpace(*r.Email)
		if v == "" {
			return nil, fmt.Errorf("email must not be empty")
		}
		next.Email = v
		cols = append(cols, ColEmail)
	}
	if r.Address != nil {
		next.Address = *r.Address
		cols = append(cols, ColAddress)
	}
	if r.Product != nil {
		if !r.Product.Valid() {
			return nil, fmt.Errorf("unknown product %q", *r.Product)
		}
		next.Product = *r.Product
		cols = append(cols, ColProduct)
	}
	if r.Status != nil {
		if !r.Status.Valid() {
			return nil, fmt.Errorf("unknown status %q", *r.Status)
		}
		next.Status = *r.Status
		cols = append(cols, ColStatus)
	}
	if r.Tags != nil {
		tags, err := normalizeTags(*r.Tags)
		if err != nil {
			return nil, err
		}
		next.Tags = tags
		cols = append(cols, ColTags)
	}
	if r.AccountIDs != nil {
		if len(*r.AccountIDs) > len(accountColumns) {
			return nil, fmt.Errorf("at most %d account ids", len(accountColumns))
		}
		next.AccountIDs = [4]string{}
		copy(next.AccountIDs[:], *r.AccountIDs)
		cols = append(cols, accountColumns[:]...)
	}
	if r.OrderDate != nil {
		next.OrderDate = *r.OrderDate
		cols = append(cols, ColOrderDate)
	}
	if r.FirstContact != nil {
		next.FirstContact = *r.FirstContact
		cols = append(cols, ColFirstContact)
	}
	for _, f := range []struct {
		col    string
		src    *bool
		target *bool
	}{
		{ColInvoiceSent, r.InvoiceSent, &next.InvoiceSent},
		{ColInvoicePaid, r.InvoicePaid, &next.InvoicePaid},
		{ColMemberAccess, r.MemberAccess, &next.MemberAccess},
		{ColDocumentsSent, r.DocumentsSent, &next.DocumentsSent},
		{ColDocumentsSigned, r.DocumentsSigned, &next.DocumentsSigned},
	} {
		if f.src != nil {
			*f.target = *f.src
			cols = append(cols, f.col)
		}
	}

	*c = next
	return cols, nil
}

// normalizeTags rejects unknown tags and drops repeats, keeping first occurrence order.
func normalizeTags(tags []string) ([]string, error) {
	out := make([]string, 0, len(tags))
	seen := make(map[string]bool, len(tags))
	for _, t := range tags {
		t = strings.TrimSpace(t)
		if t == "" || seen[t] {
			continue
		}
		if !ValidTag(t) {
			return nil, fmt.Errorf("unknown tag %q", t)
		}
		seen[t] = true
		out = append(out, t)
	}
	return out, nil
}
