// Package assistant turns free-text chat messages into expense entries or
// spending answers by way of a structured text generation service.
package assistant

import (
	"encoding/json"
	"fmt"
	"strings"

	"tally/internal/core"
)

// SchemaType names a JSON value kind in a response schema.
type SchemaType string

const (
	TypeObject SchemaType = "object"
	TypeArray  SchemaType = "array"
	TypeString SchemaType = "string"
	TypeNumber SchemaType = "number"
)

// Schema constrains the generator's JSON reply. It mirrors the subset of
// OpenAPI schema that generation services accept.
type Schema struct {
	Type        SchemaType
	Description string
	Format      string
	Enum        []string
	Properties  map[string]*Schema
	Items       *Schema
	Required    []string
	Nullable    bool
}

// Request is one generation call.
type Request struct {
	SystemInstruction string
	Prompt            string
	Schema            *Schema
}

// ResponseSchema describes the reply the bridge expects.
func ResponseSchema() *Schema {
	return &Schema{
		Type: TypeObject,
		Properties: map[string]*Schema{
			"intent": {
				Type: TypeString,
				Enum: []string{IntentQuestion, IntentExpenseEntry, IntentUnclear},
			},
			"expenses": {
				Type:     TypeArray,
				Nullable: true,
				Items: &Schema{
					Type: TypeObject,
					Properties: map[string]*Schema{
						"amount":      {Type: TypeNumber, Description: "Positive amount in dollars"},
						"description": {Type: TypeString},
						"category":    {Type: TypeString, Enum: core.CategoryNames()},
						"date":        {Type: TypeString, Description: "YYYY-MM-DD"},
					},
					Required: []string{"amount", "description", "category", "date"},
				},
			},
			"answer":        {Type: TypeString, Nullable: true},
			"clarification": {Type: TypeString, Nullable: true},
		},
		Required: []string{"intent"},
	}
}

// SystemInstruction explains the intents, the category list and today's
// date so relative dates like "yesterday" resolve correctly.
func SystemInstruction(today core.Date) string {
	var b strings.Builder
	b.WriteString("You are a personal budget assistant. Classify every user message into one intent:\n")
	fmt.Fprintf(&b, "- %s: the user asks about their spending. Answer from the provided expenses only, in one or two sentences, and put the text in \"answer\".\n", IntentQuestion)
	fmt.Fprintf(&b, "- %s: the user describes one or more purchases. Return each one in \"expenses\" with amount, description, category and date.\n", IntentExpenseEntry)
	fmt.Fprintf(&b, "- %s: anything else. Put a short follow-up question in \"clarification\".\n", IntentUnclear)
	fmt.Fprintf(&b, "Valid categories: %s. Use %s when nothing else fits.\n", strings.Join(core.CategoryNames(), ", "), core.CategoryOther)
	fmt.Fprintf(&b, "Today is %s. Resolve relative dates against it and write dates as YYYY-MM-DD.\n", today)
	b.WriteString("Amounts are in dollars. Never invent expenses the user did not mention.")
	return b.String()
}

// contextExpense is the read-only view of an expense given to the
// generator. Identifiers are left out.
type contextExpense struct {
	Description string     `json:"description"`
	Amount      core.Money `json:"amount"`
	Category    string     `json:"category"`
	Date        core.Date  `json:"date"`
}

// BuildPrompt serializes the visible expenses and appends the user message.
func BuildPrompt(expenses []core.Expense, message string) (string, error) {
	view := make([]contextExpense, len(expenses))
	for i, e := range expenses {
		view[i] = contextExpense{Description: e.Description, Amount: e.Amount, Category: e.Category, Date: e.Date}
	}
	b, err := json.Marshal(view)
	if err != nil {
		return "", fmt.Errorf("encode expenses: %w", err)
	}
	var sb strings.Builder
	sb.WriteString("Current expenses (JSON):\n")
	sb.Write(b)
	sb.WriteString("\n\nUser message:\n")
	sb.WriteString(message)
	return sb.String(), nil
}

// NewRequest assembles the full generation request for one message.
func NewRequest(today core.Date, expenses []core.Expense, message string) (Request, error) {
	prompt, err := BuildPrompt(expenses, message)
	if err != nil {
		return Request{}, err
	}
	return Request{
		SystemInstruction: SystemInstruction(today),
		Prompt:            prompt,
		Schema:            ResponseSchema(),
	}, nil
}
