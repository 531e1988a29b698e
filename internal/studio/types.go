package studio

import (
	"time"

	"lumidecor/internal/catalog"
	"lumidecor/internal/compare"
	"lumidecor/internal/gemini"
	"lumidecor/internal/intake"
)

type Role string

const (
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
)

type MessageType string

const (
	TypeText           MessageType = "text"
	TypeStyleSelection MessageType = "style-selection"
	TypeImageGallery   MessageType = "image-gallery"
	TypeComparison     MessageType = "comparison"
	TypeProductList    MessageType = "product-list"
)

// Product is a shoppable item pinned on a result image; X and Y are percentages.
type Product struct {
	ID    string  `json:"id"`
	X     float64 `json:"x"`
	Y     float64 `json:"y"`
	Name  string  `json:"name"`
	Price string  `json:"price"`
	Image string  `json:"image"`
	Link  string  `json:"link"`
}

type DesignResult struct {
	Original string    `json:"original"`
	Modified string    `json:"modified"`
	Products []Product `json:"products,omitempty"`
	// NoImage marks an entry whose generation call answered without an image.
	NoImage bool `json:"noImage,omitempty"`
}

type StyleSelection struct {
	Styles []catalog.Style `json:"styles"`
}

type Gallery struct {
	Style   catalog.Style  `json:"style"`
	Entries []DesignResult `json:"entries"`
}

type Comparison struct {
	Original string `json:"original"`
	Modified string `json:"modified"`
}

type ProductList struct {
	Products []Product `json:"products"`
}

// Message is one entry of the append-only conversation log. Data holds the
// payload matching Type: StyleSelection, Gallery, Comparison or ProductList.
type Message struct {
	ID            string              `json:"id"`
	Role          Role                `json:"role"`
	Type          MessageType         `json:"type"`
	Content       string              `json:"content"`
	Timestamp     time.Time           `json:"timestamp"`
	Data          any                 `json:"data,omitempty"`
	Attachments   []intake.Attachment `json:"attachments,omitempty"`
	GroundingURLs []gemini.Link       `json:"groundingUrls,omitempty"`
	// ReplyTo names the attachment-bearing message a style-selection answers.
	ReplyTo string `json:"replyTo,omitempty"`
}

func (m Message) StyleSelection() (StyleSelection, bool) {
	v, ok := m.Data.(StyleSelection)
	return v, ok
}

func (m Message) Gallery() (Gallery, bool) {
	v, ok := m.Data.(Gallery)
	return v, ok
}

func (m Message) Comparison() (Comparison, bool) {
	v, ok := m.Data.(Comparison)
	return v, ok
}

func (m Message) ProductList() (ProductList, bool) {
	v, ok := m.Data.(ProductList)
	return v, ok
}

type Tab string

const (
	TabDesign  Tab = "design"
	TabCompare Tab = "compare"
)

// Overlay is the detail view over one gallery entry.
type Overlay struct {
	MessageID        string         `json:"messageId"`
	Index            int            `json:"index"`
	Result           DesignResult   `json:"result"`
	Tab              Tab            `json:"tab"`
	HoveredProductID string         `json:"hoveredProductId,omitempty"`
	Editing          bool           `json:"editing"`
	EditText         string         `json:"editText,omitempty"`
	Slider           compare.Slider `json:"slider"`
}

type State struct {
	Mode          catalog.Mode      `json:"mode"`
	InputType     catalog.InputType `json:"inputType"`
	Messages      []Message         `json:"messages"`
	Generating    bool              `json:"isGenerating"`
	SelectedStyle *catalog.Style    `json:"selectedStyle"`
	Overlay       *Overlay          `json:"overlay,omitempty"`
}

// Message returns the message with the given id.
func (s State) Message(id string) (Message, int, bool) {
	for i, m := range s.Messages {
		if m.ID == id {
			return m, i, true
		}
	}
	return Message{}, -1, false
}

// LastWithAttachments returns the most recent message carrying attachments.
func (s State) LastWithAttachments() (Message, bool) {
	for i := len(s.Messages) - 1; i >= 0; i-- {
		if len(s.Messages[i].Attachments) > 0 {
			return s.Messages[i], true
		}
	}
	return Message{}, false
}
