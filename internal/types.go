package internal

// Field is an extracted datum together with how sure the extractor is about it.
// Confidence is 0 whenever Value is nil.
type Field[T any] struct {
	Value      *T      `json:"value"`
	Confidence float64 `json:"confidence"`
	Notes      string  `json:"notes"`
}

type Item struct {
	ProductName Field[string] `json:"product_name"`
	Quantity    Field[int]    `json:"quantity"`
	Unit        Field[string] `json:"unit"`
}

type Event struct {
	EmailID       string        `json:"email_id"`
	From          Field[string] `json:"from"`
	Subject       Field[string] `json:"subject"`
	Items         []Item        `json:"items"`
	Currency      Field[string] `json:"currency"`
	MissingFields []string      `json:"missing_fields"`
}

type Product struct {
	Name          string  `json:"name"`
	UnitPrice     float64 `json:"unit_price"`
	UnitOfMeasure string  `json:"unit_of_measure"`
}

type DiscountRule struct {
	MinQuantity int     `json:"min_quantity"`
	Discount    float64 `json:"discount"`
}

type AckDraft struct {
	EmailID       string   `json:"email_id"`
	To            string   `json:"to"`
	Subject       string   `json:"subject"`
	Body          string   `json:"body"`
	MissingFields []string `json:"missing_fields"`
	Questions     []string `json:"questions"`
}

type QuoteStatus string

const (
	QuoteComplete QuoteStatus = "complete"
	QuotePending  QuoteStatus = "pending"
)

type QuoteLine struct {
	ProductName    string   `json:"product_name"`
	UnitPrice      *float64 `json:"unit_price"`
	Quantity       *int     `json:"quantity"`
	DiscountRate   float64  `json:"discount_rate"`
	DiscountAmount float64  `json:"discount_amount"`
	Subtotal       *float64 `json:"subtotal"`
}

type Quote struct {
	EmailID       string      `json:"email_id"`
	Status        QuoteStatus `json:"status"`
	LineItems     []QuoteLine `json:"line_items"`
	Subtotal      float64     `json:"subtotal"`
	Tax           float64     `json:"tax"`
	Total         float64     `json:"total"`
	Currency      *string     `json:"currency"`
	MissingFields []string    `json:"missing_fields"`
}

const (
	StepReadEmail     = "read_email"
	StepParseEmail    = "parse_email"
	StepSkipEmail     = "skip_email"
	StepGenerateAck   = "generate_ack"
	StepGenerateQuote = "generate_quote"

	StatusSuccess = "success"
	StatusError   = "error"
	StatusSkipped = "skipped"
	StatusPending = "pending"
)

type Activity struct {
	Timestamp string  `json:"timestamp"`
	EmailID   *string `json:"email_id"`
	Step      string  `json:"step"`
	Status    string  `json:"status"`
	Message   string  `json:"message"`
}

type RawEmailRow struct {
	ID         int
	Provider   string
	MessageID  string
	Subject    string
	Sender     string
	ReceivedAt string
	Hash       string
	Status     string
	RawRef     string
}

type FetchedMailMessage struct {
	Provider   string
	MessageID  string
	Subject    string
	From       string
	ReceivedAt string
	Raw        []byte
}

type EventExportRow struct {
	EmailID            string
	Sender             *string
	Subject            *string
	Currency           *string
	ProductName        *string
	ProductConfidence  float64
	ProductNotes       string
	Quantity           *int
	QuantityConfidence float64
	QuantityNotes      string
	Unit               *string
	MissingFields      string
	QuoteStatus        *string
	QuoteTotal         *float64
}
