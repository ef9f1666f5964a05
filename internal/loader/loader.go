// Package loader populates EDB relation tables from input fact files, the
// "external collaborator" role spec.md §1 calls out as out of the core's
// scope but SPEC_FULL.md gives a concrete home to (cmd/terry's load
// subcommand). Ported from the reference benchmark harness's
// setup_database / setup_database_rdf.
package loader

import (
	"bufio"
	"fmt"
	"os"
	"strconv"
	"strings"

	"terry/internal/sqlchan"
)

// Interner assigns each distinct string a stable, increasing integer id
// in first-seen order, matching the reference's get_or_intern.
type Interner struct {
	ids   map[string]int
	order []string
}

// NewInterner returns an empty interner.
func NewInterner() *Interner {
	return &Interner{ids: make(map[string]int)}
}

// Intern returns value's id, assigning the next free id on first sight.
func (in *Interner) Intern(value string) int {
	if id, ok := in.ids[value]; ok {
		return id
	}
	id := len(in.order)
	in.ids[value] = id
	in.order = append(in.order, value)
	return id
}

// Term returns the string interned at id, or "" if none was.
func (in *Interner) Term(id int) string {
	if id < 0 || id >= len(in.order) {
		return ""
	}
	return in.order[id]
}

// Well-known RDFS vocabulary terms, pre-interned by LoadNTriples in this
// fixed order before any file line is read, matching the reference
// benchmark's pre-seeding of its mapping dict.
const (
	RDFType        = "<http://www.w3.org/1999/02/22-rdf-syntax-ns#type>"
	RDFSSubClassOf = "<http://www.w3.org/2000/01/rdf-schema#subClassOf>"
	RDFSSubPropOf  = "<http://www.w3.org/2000/01/rdf-schema#subPropertyOf>"
	RDFSDomain     = "<http://www.w3.org/2000/01/rdf-schema#domain>"
	RDFSRange      = "<http://www.w3.org/2000/01/rdf-schema#range>"
	RDFProperty    = "<http://www.w3.org/1999/02/22-rdf-syntax-ns#Property>"
	LUBMPrefix     = "http://www.lehigh.edu/~zhp2/2004/0401/univ-bench.owl#"
)

// LoadWhitespaceTriples reads path as whitespace-separated "a b" lines of
// two integers (the dense/sparse benchmark format), deduplicating
// repeated lines exactly as written (not as parsed values).
func LoadWhitespaceTriples(path string) ([][2]int, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", path, err)
	}
	defer f.Close()

	seen := make(map[string]bool)
	var out [][2]int

	scanner := bufio.NewScanner(f)
	for scanner.Scan() {
		line := scanner.Text()
		if seen[line] {
			continue
		}
		seen[line] = true

		fields := strings.Fields(line)
		if len(fields) < 2 {
			continue
		}
		a, err := strconv.Atoi(fields[0])
		if err != nil {
			return nil, fmt.Errorf("%s: bad integer %q: %w", path, fields[0], err)
		}
		b, err := strconv.Atoi(fields[1])
		if err != nil {
			return nil, fmt.Errorf("%s: bad integer %q: %w", path, fields[1], err)
		}
		out = append(out, [2]int{a, b})
	}
	return out, scanner.Err()
}

// LoadNTriples reads path as whitespace-tokenized triples (subject,
// predicate, object — any further tokens, such as N-Triples' trailing
// ".", are ignored, matching the reference loader), skips any line
// containing "genid" (blank node markers the reference benchmark
// excludes), deduplicates repeated lines, and interns every term into
// integer ids via interner. The RDFS vocabulary terms above are
// pre-interned, in the order listed, before the first line is read.
func LoadNTriples(path string, interner *Interner) ([][3]int, error) {
	for _, term := range []string{
		RDFType, RDFSSubClassOf, RDFSSubPropOf, RDFSDomain, RDFSRange, RDFProperty, LUBMPrefix,
	} {
		interner.Intern(term)
	}

	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", path, err)
	}
	defer f.Close()

	seen := make(map[string]bool)
	var out [][3]int

	scanner := bufio.NewScanner(f)
	for scanner.Scan() {
		line := scanner.Text()
		if strings.Contains(line, "genid") {
			continue
		}
		if seen[line] {
			continue
		}
		seen[line] = true

		fields := strings.Fields(line)
		if len(fields) < 3 {
			continue
		}
		s := interner.Intern(fields[0])
		p := interner.Intern(fields[1])
		o := interner.Intern(fields[2])
		out = append(out, [3]int{s, p, o})
	}
	return out, scanner.Err()
}

// CreateAndInsert creates table (column names "{table}_0".."{table}_{arity-1}")
// if it doesn't already exist and inserts rows, each of length arity, in
// order — one statement per row, matching the reference loader's
// row-at-a-time inserts.
func CreateAndInsert(ch *sqlchan.Channel, table string, arity int, rows [][]int) error {
	defs := make([]string, arity)
	for i := range defs {
		defs[i] = fmt.Sprintf("%s_%d INTEGER", table, i)
	}
	create := fmt.Sprintf("CREATE TABLE IF NOT EXISTS %s (%s)", table, strings.Join(defs, ", "))
	if err := ch.Exec(sqlchan.CompilerInit, create, ""); err != nil {
		return err
	}

	for _, row := range rows {
		if len(row) != arity {
			return fmt.Errorf("loader: row has %d values, want arity %d", len(row), arity)
		}
		values := make([]string, arity)
		for i, v := range row {
			values[i] = strconv.Itoa(v)
		}
		insert := fmt.Sprintf("INSERT INTO %s VALUES (%s)", table, strings.Join(values, ", "))
		if err := ch.Exec(sqlchan.CompilerInit, insert, ""); err != nil {
			return err
		}
	}
	return nil
}

// InsertPairs is CreateAndInsert specialized to arity-2 rows (the E
// relation in the dense/sparse benchmark).
func InsertPairs(ch *sqlchan.Channel, table string, pairs [][2]int) error {
	rows := make([][]int, len(pairs))
	for i, p := range pairs {
		rows[i] = []int{p[0], p[1]}
	}
	return CreateAndInsert(ch, table, 2, rows)
}

// InsertTriples is CreateAndInsert specialized to arity-3 rows (the RDF
// relation in the LUBM benchmark).
func InsertTriples(ch *sqlchan.Channel, table string, triples [][3]int) error {
	rows := make([][]int, len(triples))
	for i, t := range triples {
		rows[i] = []int{t[0], t[1], t[2]}
	}
	return CreateAndInsert(ch, table, 3, rows)
}
