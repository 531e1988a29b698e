package gemini

// Message is one prior conversation turn handed to Advise as context.
type Message struct {
	Role string // "user" | "model"
	Text string
}

type Link struct {
	Title string `json:"title"`
	URI   string `json:"uri"`
}

type Advice struct {
	Text  string
	Links []Link
}

type Response struct {
	Text   string
	Images []string
	Links  []Link
}
