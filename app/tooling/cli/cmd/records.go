package cmd

import (
	"bufio"
	"fmt"
	"io"
	"strings"

	"github.com/ardanlabs/medchain/foundation/blockchain/database"
)

// recordFields is the number of whitespace separated fields on an input
// line: first name, last name, date of birth, ssn, diagnosis, treatment and
// prescription.
const recordFields = 7

// parseRecords reads one record per line. Blank lines are skipped.
func parseRecords(r io.Reader) ([]database.Record, error) {
	var records []database.Record

	scanner := bufio.NewScanner(r)
	for line := 1; scanner.Scan(); line++ {
		text := strings.TrimSpace(scanner.Text())
		if text == "" {
			continue
		}

		fields := strings.Fields(text)
		if len(fields) != recordFields {
			return nil, fmt.Errorf("line %d: expected %d fields, got %d", line, recordFields, len(fields))
		}

		records = append(records, database.Record{
			FirstName:    fields[0],
			LastName:     fields[1],
			DOB:          fields[2],
			SSN:          fields[3],
			Diagnosis:    fields[4],
			Treatment:    fields[5],
			Prescription: fields[6],
		})
	}

	if err := scanner.Err(); err != nil {
		return nil, err
	}

	return records, nil
}
