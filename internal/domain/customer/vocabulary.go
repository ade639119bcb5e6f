package customer

// Product is the package a customer bought or is interested in.
type Product string

const (
	ProductNone          Product = "Kein Produkt"
	ProductSignals       Product = "Telegram-Signale"
	ProductExpertAdvisor Product = "Expert Advisor"
	ProductBundle        Product = "Komplettpaket"
)

// Status is a plain data field; the store applies no transition rules to it.
type Status string

const (
	StatusInterested Status = "Interesse"
	StatusPurchased  Status = "Gekauft"
)

// Fixed tag vocabulary offered by the editing form.
const (
	TagLIT2Trade  = "LIT2Trade"
	TagLITEA      = "LIT-EA"
	TagLITSignal  = "LIT-Signal"
	TagInterested = "Interessent"
	TagPurchased  = "gekauft"
)

var (
	AllProducts = []Product{ProductNone, ProductSignals, ProductExpertAdvisor, ProductBundle}
	AllStatuses = []Status{StatusInterested, StatusPurchased}
	AllTags     = []string{TagLIT2Trade, TagLITEA, TagLITSignal, TagInterested, TagPurchased}
)

// Vocabulary is what the editing UI needs to render its selection widgets.
type Vocabulary struct {
	Products []Product `json:"products"`
	Statuses []Status  `json:"statuses"`
	Tags     []string  `json:"tags"`
}

func DefaultVocabulary() Vocabulary {
	return Vocabulary{Products: AllProducts, Statuses: AllStatuses, Tags: AllTags}
}

func (p Product) Valid() bool {
	for _, known := range AllProducts {
		if p == known {
			return true
		}
	}
	return false
}

func (s Status) Valid() bool {
	for _, known := range AllStatuses {
		if s == known {
			return true
		}
	}
	return false
}

// ValidTag reports whether tag belongs to the fixed vocabulary.
func ValidTag(tag string) bool {
	for _, known := range AllTags {
		if tag == known {
			return true
		}
	}
	return false
}
