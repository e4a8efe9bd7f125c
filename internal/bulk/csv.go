package bulk

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"strings"
	"time"

	"socialsync/internal/model"
)

// ParseCSV reads queue items from rows of
//
//	caption,date,time,platforms,type
//
// platforms is a ';'-separated list. date and time may both be blank, in
// which case the row is placed by the slot policy. A header row whose first
// column is "caption" is skipped.
func ParseCSV(r io.Reader, loc *time.Location) ([]Item, error) {
	if loc == nil {
		loc = time.UTC
	}
	cr := csv.NewReader(r)
	cr.FieldsPerRecord = -1
	cr.TrimLeadingSpace = true

	var items []Item
	line := 0
	for {
		rec, err := cr.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("%w: csv: %v", model.ErrValidation, err)
		}
		line++
		if line == 1 && len(rec) > 0 && strings.EqualFold(strings.TrimSpace(rec[0]), "caption") {
			continue
		}
		if len(rec) == 1 && strings.TrimSpace(rec[0]) == "" {
			continue
		}
		it, err := parseRow(rec, loc)
		if err != nil {
			return nil, fmt.Errorf("%w: csv line %d: %v", model.ErrValidation, line, err)
		}
		it.ID = fmt.Sprintf("csv-%d", line)
		items = append(items, it)
	}
	return items, nil
}

func parseRow(rec []string, loc *time.Location) (Item, error) {
	field := func(i int) string {
		if i < len(rec) {
			return strings.TrimSpace(rec[i])
		}
		return ""
	}

	it := Item{Caption: field(0)}
	if it.Caption == "" {
		return it, errors.New("caption is required")
	}

	date, clock := field(1), field(2)
	switch {
	case date != "" && clock != "":
		at, err := time.ParseInLocation(dateLayout+" "+timeLayout, date+" "+clock, loc)
		if err != nil {
			return it, fmt.Errorf("invalid date/time %q %q", date, clock)
		}
		it.At = &at
	case date != "" || clock != "":
		return it, errors.New("date and time must be given together")
	}

	if ps := field(3); ps != "" {
		for _, raw := range strings.Split(ps, ";") {
			if strings.TrimSpace(raw) == "" {
				continue
			}
			p, err := model.ParsePlatform(raw)
			if err != nil {
				return it, err
			}
			it.Platforms = append(it.Platforms, p)
		}
	}

	if typ := field(4); typ != "" {
		it.Type = model.EventType(strings.ToLower(typ))
		if !it.Type.Valid() {
			return it, fmt.Errorf("unknown type %q", typ)
		}
	}
	return it, nil
}

// WriteCSV renders a plan's assignments in the same column layout ParseCSV
// reads.
func WriteCSV(w io.Writer, plan Plan) error {
	cw := csv.NewWriter(w)
	if err := cw.Write([]string{"caption", "date", "time", "platforms", "type"}); err != nil {
		return err
	}
	for _, a := range plan.Assignments {
		ps := make([]string, len(a.Platforms))
		for i, p := range a.Platforms {
			ps[i] = string(p)
		}
		typ := a.Item.Type
		if typ == "" {
			typ = model.TypePost
		}
		row := []string{
			a.Item.Caption,
			a.At.Format(dateLayout),
			a.At.Format(timeLayout),
			strings.Join(ps, ";"),
			string(typ),
		}
		if err := cw.Write(row); err != nil {
			return err
		}
	}
	cw.Flush()
	return cw.Error()
}
