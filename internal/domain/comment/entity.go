package comment

import (
	"fmt"
	"strconv"
	"strings"
	"time"
)

// TimestampLayout is second precision, local time.
const TimestampLayout = "2006-01-02 15:04:05"

const (
	ColCustomerID = "Kunden-ID"
	ColCreatedAt  = "Datum"
	ColText       = "Kommentar"
)

var Columns = []string{ColCustomerID, ColCreatedAt, ColText}

// Comment is an immutable note attached to one customer.
type Comment struct {
	CustomerID int64     `json:"customer_id"`
	CreatedAt  time.Time `json:"created_at"`
	Text       string    `json:"text"`
}

type CreateCommentRequest struct {
	Text string `json:"text" binding:"required"`
}

func (c *Comment) Cells() []string {
	return []string{
		strconv.FormatInt(c.CustomerID, 10),
		c.CreatedAt.Format(TimestampLayout),
		c.Text,
	}
}

// ParseRow reads one comment row laid out as header describes.
func ParseRow(header, cells []string) (Comment, string, error) {
	get := func(col string) string {
		for i, h := range header {
			if h == col && i < len(cells) {
				return cells[i]
			}
		}
		return ""
	}

	raw := strings.TrimSpace(get(ColCustomerID))
	id, err := strconv.ParseInt(raw, 10, 64)
	if err != nil || id <= 0 {
		return Comment{}, ColCustomerID, fmt.Errorf("invalid customer id %q", raw)
	}
	rawTime := strings.TrimSpace(get(ColCreatedAt))
	at, err := time.ParseInLocation(TimestampLayout, rawTime, time.Local)
	if err != nil {
		return Comment{}, ColCreatedAt, fmt.Errorf("invalid timestamp %q", rawTime)
	}
	return Comment{CustomerID: id, CreatedAt: at, Text: get(ColText)}, "", nil
}
