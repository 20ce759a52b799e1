// Package gedcom reads and writes members as GEDCOM 5.5.1 INDI records.
// FAM records are not interpreted, so imported members carry no links.
package gedcom

import (
	"bufio"
	"fmt"
	"io"
	"strings"

	"github.com/agenthands/lineage/internal/core/model"
)

const Source = "LINEAGE"

// Encode writes one INDI record per member between a header and trailer.
func Encode(w io.Writer, members []*model.Member) error {
	bw := bufio.NewWriter(w)
	line := func(format string, args ...interface{}) {
		fmt.Fprintf(bw, format+"\n", args...)
	}

	line("0 HEAD")
	line("1 SOUR %s", Source)
	line("1 GEDC")
	line("2 VERS 5.5.1")
	line("2 FORM LINEAGE-LINKED")
	line("1 CHAR UTF-8")

	for _, m := range members {
		line("0 @%s@ INDI", m.ID)
		line("1 NAME %s /%s/", flatten(m.Name), flatten(m.GenerationWord))
		if m.GivenName != "" {
			line("2 GIVN %s", flatten(m.GivenName))
		}
		if m.Gender != "" {
			line("1 SEX %s", m.Gender)
		}
		if m.BirthDate != "" {
			line("1 BIRT")
			line("2 DATE %s", flatten(m.BirthDate))
		}
		if !m.IsAlive && m.DeathDate != "" {
			line("1 DEAT")
			line("2 DATE %s", flatten(m.DeathDate))
		}
		if m.Bio != "" {
			line("1 NOTE %s", flatten(m.Bio))
		}
	}

	line("0 TRLR")
	return bw.Flush()
}

// Export renders members as a GEDCOM document.
func Export(members []*model.Member) string {
	var sb strings.Builder
	_ = Encode(&sb, members)
	return sb.String()
}

// flatten folds line breaks into spaces. Multi-line values would need
// CONT records, which are not written.
func flatten(s string) string {
	s = strings.ReplaceAll(s, "\r\n", " ")
	return strings.NewReplacer("\n", " ", "\r", " ").Replace(s)
}

type gedLine struct {
	level int
	xref  string
	tag   string
	value string
}

func parseLine(raw string) (gedLine, bool) {
	raw = strings.TrimSpace(strings.TrimPrefix(raw, "\ufeff"))
	fields := strings.SplitN(raw, " ", 2)
	if len(fields) < 2 {
		return gedLine{}, false
	}
	var l gedLine
	if _, err := fmt.Sscanf(fields[0], "%d", &l.level); err != nil {
		return gedLine{}, false
	}
	rest := strings.TrimSpace(fields[1])
	if strings.HasPrefix(rest, "@") {
		parts := strings.SplitN(rest, " ", 2)
		l.xref = strings.Trim(parts[0], "@")
		if len(parts) < 2 {
			return gedLine{}, false
		}
		rest = strings.TrimSpace(parts[1])
	}
	parts := strings.SplitN(rest, " ", 2)
	l.tag = strings.ToUpper(parts[0])
	if len(parts) == 2 {
		l.value = strings.TrimSpace(parts[1])
	}
	return l, true
}

// Decode reads INDI records. Missing fields fall back to the member defaults
// (gender M, generation 1, branch Main) and a member is alive unless a DEAT
// tag was seen. Records without a name are dropped.
func Decode(r io.Reader) ([]*model.Member, error) {
	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 64*1024), 1024*1024)

	var (
		result  []*model.Member
		current *model.Member
		event   string
	)
	flush := func() {
		if current != nil && current.ID != "" && strings.TrimSpace(current.Name) != "" {
			current.ApplyDefaults()
			result = append(result, current)
		}
		current = nil
	}

	for scanner.Scan() {
		l, ok := parseLine(scanner.Text())
		if !ok {
			continue
		}
		if l.level == 0 {
			flush()
			if l.tag == "INDI" && l.xref != "" {
				current = &model.Member{ID: l.xref, IsAlive: true}
			}
			continue
		}
		if current == nil {
			continue
		}
		if l.level == 1 {
			event = l.tag
		}

		switch {
		case l.level == 1 && l.tag == "NAME":
			name, word := splitName(l.value)
			current.Name = name
			current.GenerationWord = word
		case l.level == 2 && l.tag == "GIVN" && event == "NAME":
			current.GivenName = l.value
		case l.level == 1 && l.tag == "SEX":
			if strings.EqualFold(l.value, "F") {
				current.Gender = model.GenderFemale
			} else {
				current.Gender = model.GenderMale
			}
		case l.level == 1 && l.tag == "DEAT":
			current.IsAlive = false
		case l.level == 1 && l.tag == "NOTE":
			current.Bio = l.value
		case l.level == 2 && l.tag == "DATE" && event == "BIRT":
			current.BirthDate = l.value
		case l.level == 2 && l.tag == "DATE" && event == "DEAT":
			current.DeathDate = l.value
		}
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("read gedcom: %w", err)
	}
	flush()
	return result, nil
}

// Import parses a GEDCOM document held in memory.
func Import(text string) ([]*model.Member, error) {
	return Decode(strings.NewReader(text))
}

// splitName separates "Name /Word/" into the name and the surname slot,
// which carries the generation word.
func splitName(v string) (string, string) {
	parts := strings.Split(v, "/")
	name := strings.TrimSpace(parts[0])
	word := ""
	if len(parts) > 1 {
		word = strings.TrimSpace(parts[1])
	}
	if name == "" && len(parts) > 2 {
		name = strings.TrimSpace(parts[2])
	}
	return name, word
}
