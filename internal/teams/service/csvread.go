package service

import (
	"encoding/csv"
	"fmt"
	"io"
	"strings"

	"hackdesk_backend/internal/teams/domain"
)

// Column header candidates for the Unstop registration export. Headers are
// matched case-insensitively after trimming; unknown columns are ignored.
var columnCandidates = map[string][]string{
	"teamID":   {"team id"},
	"teamName": {"team name"},
	"role":     {"candidate role", "role"},
	"name":     {"candidate's name", "candidate name", "name"},
	"email":    {"candidate's email", "candidate email", "email"},
	"phone":    {"candidate's mobile", "candidate mobile", "mobile", "phone"},
	"org":      {"organisation", "organization", "institute"},
	"degree":   {"degree", "course"},
	"gradYear": {"year of graduation", "graduation year"},
	"status":   {"reg. status", "reg status", "registration status"},
}

// readRegistrationCSV parses the Unstop export into flat registration rows.
// The first record is the header; remaining records map positionally via
// the resolved header index. Short records are padded so a truncated
// trailing field never fails the whole import.
func readRegistrationCSV(r io.Reader) ([]domain.Row, error) {
	reader := csv.NewReader(r)
	reader.FieldsPerRecord = -1
	reader.LazyQuotes = true

	header, err := reader.Read()
	if err == io.EOF {
		return nil, fmt.Errorf("csv file is empty")
	}
	if err != nil {
		return nil, fmt.Errorf("read csv header: %w", err)
	}

	idx := resolveColumns(header)
	if idx["teamID"] < 0 && idx["teamName"] < 0 {
		return nil, fmt.Errorf("csv header does not look like an Unstop export (no Team ID or Team Name column)")
	}

	var rows []domain.Row
	for {
		record, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("read csv record: %w", err)
		}

		rows = append(rows, domain.Row{
			TeamID:         field(record, idx["teamID"]),
			TeamName:       field(record, idx["teamName"]),
			Role:           field(record, idx["role"]),
			Name:           field(record, idx["name"]),
			Email:          field(record, idx["email"]),
			Phone:          field(record, idx["phone"]),
			Organization:   field(record, idx["org"]),
			Degree:         field(record, idx["degree"]),
			GraduationYear: field(record, idx["gradYear"]),
			RegStatus:      field(record, idx["status"]),
		})
	}

	return rows, nil
}

func resolveColumns(header []string) map[string]int {
	normalized := make([]string, len(header))
	for i, h := range header {
		normalized[i] = strings.ToLower(strings.TrimSpace(strings.TrimPrefix(h, "\ufeff")))
	}

	idx := make(map[string]int, len(columnCandidates))
	for key, candidates := range columnCandidates {
		idx[key] = -1
		for _, candidate := range candidates {
			for i, h := range normalized {
				if h == candidate {
					idx[key] = i
					break
				}
			}
			if idx[key] >= 0 {
				break
			}
		}
	}
	return idx
}

func field(record []string, i int) string {
	if i < 0 || i >= len(record) {
		return ""
	}
	return record[i]
}
