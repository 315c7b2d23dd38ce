package importer

import (
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"strings"

	"orderledger/internal/domain"
	customersvc "orderledger/internal/service/customer"
)

// CustomerWriter creates customers and attaches their visiting cards.
type CustomerWriter interface {
	Create(ctx context.Context, in customersvc.Input) (*domain.Customer, error)
	AddVisitingCard(ctx context.Context, customerID domain.ID, imageURL string) (*domain.VisitingCard, error)
}

// CSVImporter reads customer address-book exports and creates customers.
type CSVImporter struct {
	reader    *csv.Reader
	customers CustomerWriter
}

func NewCSVImporter(r io.Reader, customers CustomerWriter) *CSVImporter {
	csvr := csv.NewReader(r)
	csvr.FieldsPerRecord = -1 // rows may have trailing commas
	return &CSVImporter{reader: csvr, customers: customers}
}

// Summary counts what a Run created.
type Summary struct {
	Customers     int
	VisitingCards int
}

type csvRow struct {
	Name     string
	Phone    string
	Email    string
	Address  string
	CardURLs []string
}

// Headers are compared lowercased with spaces, "_" and "-" removed.
var columns = map[string][]string{
	"name":    {"name", "customer", "customername"},
	"phone":   {"phonenumber", "phone", "mobile"},
	"email":   {"email"},
	"address": {"address"},
	"card":    {"visitingcard", "card", "cardurl"},
}

var headerCleaner = strings.NewReplacer("\ufeff", "", " ", "", "_", "", "-", "")

// Run parses CSV rows and creates one customer per named row. Rows with a
// blank name and a card URL add cards to the preceding customer.
func (i *CSVImporter) Run(ctx context.Context) (Summary, error) {
	headers, err := i.reader.Read()
	if err != nil {
		return Summary{}, fmt.Errorf("read headers: %w", err)
	}
	index := headerIndex(headers)
	if _, ok := index["name"]; !ok {
		return Summary{}, errors.New("read headers: name column is required")
	}

	var (
		current *csvRow
		sum     Summary
		line    = 1
	)
	for {
		record, err := i.reader.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return sum, fmt.Errorf("read row: %w", err)
		}
		line++

		row := parseRow(record, index)
		if row == nil {
			continue
		}
		if row.Name != "" {
			if current != nil {
				if err := i.save(ctx, current, &sum); err != nil {
					return sum, err
				}
			}
			current = row
			continue
		}
		if current == nil {
			return sum, fmt.Errorf("line %d: visiting card without a customer", line)
		}
		current.CardURLs = append(current.CardURLs, row.CardURLs...)
	}

	if current != nil {
		if err := i.save(ctx, current, &sum); err != nil {
			return sum, err
		}
	}
	return sum, nil
}

func (i *CSVImporter) save(ctx context.Context, row *csvRow, sum *Summary) error {
	c, err := i.customers.Create(ctx, customersvc.Input{
		Name:        &row.Name,
		Address:     &row.Address,
		PhoneNumber: &row.Phone,
		Email:       &row.Email,
	})
	if err != nil {
		return fmt.Errorf("create customer %q: %w", row.Name, err)
	}
	sum.Customers++

	for _, url := range row.CardURLs {
		if _, err := i.customers.AddVisitingCard(ctx, c.ID, url); err != nil {
			return fmt.Errorf("add visiting card for %q: %w", row.Name, err)
		}
		sum.VisitingCards++
	}
	return nil
}

func headerIndex(headers []string) map[string]int {
	idx := make(map[string]int, len(columns))
	for pos, h := range headers {
		h = headerCleaner.Replace(strings.ToLower(strings.TrimSpace(h)))
		for col, aliases := range columns {
			for _, alias := range aliases {
				if h == alias {
					if _, seen := idx[col]; !seen {
						idx[col] = pos
					}
				}
			}
		}
	}
	return idx
}

func parseRow(record []string, index map[string]int) *csvRow {
	row := &csvRow{
		Name:    pick(record, index, "name"),
		Phone:   pick(record, index, "phone"),
		Email:   pick(record, index, "email"),
		Address: pick(record, index, "address"),
	}
	// Several cards may share a cell, separated by "|".
	for _, url := range strings.Split(pick(record, index, "card"), "|") {
		if url = strings.TrimSpace(url); url != "" {
			row.CardURLs = append(row.CardURLs, url)
		}
	}
	if row.Name == "" && len(row.CardURLs) == 0 {
		return nil
	}
	return row
}

func pick(record []string, index map[string]int, key string) string {
	pos, ok := index[key]
	if !ok || pos >= len(record) {
		return ""
	}
	return strings.TrimSpace(record[pos])
}
