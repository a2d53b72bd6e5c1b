package usecase

import (
	"fmt"
	"math"
	"regexp"
	"strings"
	"unicode/utf8"

	"github.com/betterbuy/backend/internal/domain"
)

const (
	tableNameMax        = 70
	tableDescriptionMax = 200
	tableMinDescription = 5
	tableHeaderWidth    = 70
	tableFrameWidth     = 76
	tableRuleWidth      = 78
)

var firstNumberPattern = regexp.MustCompile(`[\d,.]*\d[\d,.]*`)

const tableBanner = "╔══════════════════════════════════════════════════════════════════════════════╗\n" +
	"║                         PRODUCT COMPARISON TABLE                             ║\n" +
	"╚══════════════════════════════════════════════════════════════════════════════╝\n\n"

const unavailableFooter = "💡 NOTE: AI comparison is currently unavailable.\n" +
	"   To enable AI-powered comparisons:\n" +
	"   1. Set ai.provider (BETTERBUY_AI_PROVIDER) to 'openai' or 'gemini'\n" +
	"   2. Set ai.api_key (BETTERBUY_AI_API_KEY) for that provider\n" +
	"   3. Restart the service\n"

const failedFooter = "💡 NOTE: the AI comparison could not be completed. Try again later.\n"

// TablePrice reads the first number in a price string, treating commas as
// thousands separators. ok is false when the text holds no number.
func TablePrice(priceRaw string) (float64, bool) {
	token := firstNumberPattern.FindString(priceRaw)
	if token == "" {
		return 0, false
	}
	token = strings.ReplaceAll(token, ",", "")
	if trimmed := strings.TrimLeft(token, "."); trimmed != token {
		token = "0." + trimmed
	}
	return parseLeadingNumber(token)
}

// BuildComparisonTable renders the deterministic comparison of products.
// It is a pure function of its input: the same products in the same order
// always give the same table and text. reason selects the footer: none for
// FallbackNone, configuration hints for FallbackUnavailable, a short note
// for FallbackFailed.
func BuildComparisonTable(products []domain.Product, reason domain.FallbackReason) *domain.ComparisonTable {
	table := &domain.ComparisonTable{
		Rows:          make([]domain.ComparisonRow, 0, len(products)),
		CheapestIndex: -1,
	}

	var b strings.Builder
	b.WriteString(tableBanner)

	cheapest := math.Inf(1)
	for i, p := range products {
		row := domain.ComparisonRow{
			Position: i + 1,
			Name:     Truncate(p.Name, tableNameMax),
			PriceRaw: p.PriceRaw,
		}
		if utf8.RuneCountInString(p.Description) > tableMinDescription {
			row.Description = TruncateWithMarker(p.Description, tableDescriptionMax, "...")
		}
		if value, ok := TablePrice(p.PriceRaw); ok {
			v := value
			row.Price = &v
			if value < cheapest {
				cheapest = value
				table.CheapestIndex = i
			}
		}
		table.Rows = append(table.Rows, row)

		writeProductBlock(&b, row)
	}

	b.WriteString("\n📊 QUICK ANALYSIS:\n")
	b.WriteString(strings.Repeat("─", tableRuleWidth) + "\n")
	if best, ok := table.Cheapest(); ok {
		fmt.Fprintf(&b, "💰 Best Price: Product %d (%s)\n", best.Position, best.PriceRaw)
	} else {
		b.WriteString("💰 Best Price: unknown (no readable prices)\n")
	}
	fmt.Fprintf(&b, "📦 Total Products Compared: %d\n", len(products))

	switch reason {
	case domain.FallbackUnavailable:
		b.WriteString("\n" + unavailableFooter)
	case domain.FallbackFailed:
		b.WriteString("\n" + failedFooter)
	}

	table.Text = b.String()
	return table
}

func writeProductBlock(b *strings.Builder, row domain.ComparisonRow) {
	label := fmt.Sprintf("Product %d ", row.Position)
	fill := tableHeaderWidth - utf8.RuneCountInString(label)
	if fill < 0 {
		fill = 0
	}

	fmt.Fprintf(b, "┌─ %s%s┐\n", label, strings.Repeat("─", fill))
	fmt.Fprintf(b, "│ NAME:  %s\n", row.Name)
	fmt.Fprintf(b, "│ PRICE: %s\n", row.PriceRaw)
	if row.Description != "" {
		fmt.Fprintf(b, "│ INFO:  %s\n", row.Description)
	} else {
		b.WriteString("│ INFO:  No description available\n")
	}
	fmt.Fprintf(b, "└%s┘\n\n", strings.Repeat("─", tableFrameWidth))
}
