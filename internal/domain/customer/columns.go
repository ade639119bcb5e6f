package customer

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
)

// Column labels of the customers table, in file order.
const (
	ColID              = "ID"
	ColFirstName       = "Vorname"
	ColLastName        = "Nachname"
	ColEmail           = "E-Mail"
	ColAddress         = "Adresse"
	ColProduct         = "Produkt"
	ColStatus          = "Status"
	ColTags            = "Tags"
	ColAccount1        = "Konto ID1"
	ColAccount2        = "Konto ID2"
	ColAccount3        = "Konto ID3"
	ColAccount4        = "Konto ID4"
	ColOrderDate       = "Bestelldatum"
	ColFirstContact    = "Erstgespräch"
	ColInvoiceSent     = "Rechnung geschickt"
	ColInvoicePaid     = "Rechnung bezahlt"
	ColMemberAccess    = "Zugang DigiMember"
	ColDocumentsSent   = "Begleitdokumente geschickt"
	ColDocumentsSigned = "Begleitdokumente unterschrieben"
)

// Columns is the header written for the customers table.
var Columns = []string{
	ColID, ColFirstName, ColLastName, ColEmail, ColAddress, ColProduct, ColStatus, ColTags,
	ColAccount1, ColAccount2, ColAccount3, ColAccount4, ColOrderDate, ColFirstContact,
	ColInvoiceSent, ColInvoicePaid, ColMemberAccess, ColDocumentsSent, ColDocumentsSigned,
}

var accountColumns = [4]string{ColAccount1, ColAccount2, ColAccount3, ColAccount4}

// TagSeparator joins the tag set inside a single cell.
const TagSeparator = ";"

// FieldError pins a parse failure to one column of a row.
type FieldError struct {
	Column string
	Value  string
	Err    error
}

func (e *FieldError) Error() string {
	return fmt.Sprintf("column %q value %q: %v", e.Column, e.Value, e.Err)
}

func (e *FieldError) Unwrap() error { return e.Err }

// Values renders every column to its stored string form.
func (c *Customer) Values() map[string]string {
	v := map[string]string{
		ColID:              strconv.FormatInt(c.ID, 10),
		ColFirstName:       c.FirstName,
		ColLastName:        c.LastName,
		ColEmail:           c.Email,
		ColAddress:         c.Address,
		ColProduct:         string(c.Product),
		ColStatus:          string(c.Status),
		ColTags:            JoinTags(c.Tags),
		ColOrderDate:       c.OrderDate.String(),
		ColFirstContact:    c.FirstContact.String(),
		ColInvoiceSent:     FormatFlag(c.InvoiceSent),
		ColInvoicePaid:     FormatFlag(c.InvoicePaid),
		ColMemberAccess:    FormatFlag(c.MemberAccess),
		ColDocumentsSent:   FormatFlag(c.DocumentsSent),
		ColDocumentsSigned: FormatFlag(c.DocumentsSigned),
	}
	for i, col := range accountColumns {
		v[col] = c.AccountIDs[i]
	}
	return v
}

// Cells renders the customer in the order of header.
func (c *Customer) Cells(header []string) []string {
	values := c.Values()
	cells := make([]string, len(header))
	for i, col := range header {
		cells[i] = values[col]
	}
	return cells
}

// ParseRow builds a customer from one data row. Columns missing from header
// keep their zero value, so tables written by older revisions still load.
func ParseRow(header, cells []string) (Customer, error) {
	get := func(col string) string {
		for i, h := range header {
			if h == col && i < len(cells) {
				return cells[i]
			}
		}
		return ""
	}

	var c Customer
	raw := get(ColID)
	id, err := ParseID(raw)
	if err != nil {
		return Customer{}, &FieldError{Column: ColID, Value: raw, Err: err}
	}
	c.ID = id
	c.FirstName = get(ColFirstName)
	c.LastName = get(ColLastName)
	c.Email = get(ColEmail)
	c.Address = get(ColAddress)
	c.Product = Product(get(ColProduct))
	c.Status = Status(get(ColStatus))
	c.Tags = SplitTags(get(ColTags))
	for i, col := range accountColumns {
		c.AccountIDs[i] = get(col)
	}

	for _, d := range []struct {
		col    string
		target *Date
	}{
		{ColOrderDate, &c.OrderDate},
		{ColFirstContact, &c.FirstContact},
	} {
		raw := get(d.col)
		parsed, err := ParseDate(raw)
		if err != nil {
			return Customer{}, &FieldError{Column: d.col, Value: raw, Err: err}
		}
		*d.target = parsed
	}

	for _, f := range []struct {
		col    string
		target *bool
	}{
		{ColInvoiceSent, &c.InvoiceSent},
		{ColInvoicePaid, &c.InvoicePaid},
		{ColMemberAccess, &c.MemberAccess},
		{ColDocumentsSent, &c.DocumentsSent},
		{ColDocumentsSigned, &c.DocumentsSigned},
	} {
		raw := get(f.col)
		parsed, err := ParseFlag(raw)
		if err != nil {
			return Customer{}, &FieldError{Column: f.col, Value: raw, Err: err}
		}
		*f.target = parsed
	}

	return c, nil
}

// ParseID accepts positive integers. Spreadsheet exports sometimes write
// integral floats ("3.0"); those are accepted too.
func ParseID(s string) (int64, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return 0, errors.New("missing identifier")
	}
	id, err := strconv.ParseInt(s, 10, 64)
	if err != nil {
		f, ferr := strconv.ParseFloat(s, 64)
		if ferr != nil || f != float64(int64(f)) {
			return 0, fmt.Errorf("not an integer")
		}
		id = int64(f)
	}
	if id <= 0 {
		return 0, fmt.Errorf("identifier must be positive")
	}
	return id, nil
}

func FormatFlag(b bool) string {
	if b {
		return "True"
	}
	return "False"
}

// ParseFlag reads the boolean cells. Empty means false.
func ParseFlag(s string) (bool, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "false", "0", "nein", "no":
		return false, nil
	case "true", "1", "ja", "yes":
		return true, nil
	}
	return false, fmt.Errorf("not a boolean")
}

func JoinTags(tags []string) string {
	return strings.Join(tags, TagSeparator)
}

func SplitTags(s string) []string {
	tags := []string{}
	for _, part := range strings.Split(s, TagSeparator) {
		if t := strings.TrimSpace(part); t != "" {
			tags = append(tags, t)
		}
	}
	return tags
}
