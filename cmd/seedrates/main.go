// Command seedrates converts a tax-rate workbook into a SQL seed file for the
// icms_matrix, reform_phases and classification_reductions tables.
// Usage: go run ./cmd/seedrates [-in rates.xlsx] [-out db/seeds/tax_rates.sql]
// Without -in the built-in IBS/CBS transition schedule is written.
package main

import (
	"flag"
	"fmt"
	"io"
	"log"
	"os"
	"strings"
	"time"

	"github.com/xuri/excelize/v2"

	"tributa/internal/reform"
)

const batchSize = 500

func main() {
	in := flag.String("in", "", "rates workbook (.xlsx)")
	out := flag.String("out", "db/seeds/tax_rates.sql", "output SQL file")
	flag.Parse()

	if err := run(*in, *out); err != nil {
		log.Fatal(err)
	}
}

func run(inPath, outPath string) error {
	set := &rateSet{phases: reform.DefaultPhases(), reductions: reform.DefaultReductions()}
	if inPath != "" {
		f, err := excelize.OpenFile(inPath)
		if err != nil {
			return fmt.Errorf("open Excel file: %w", err)
		}
		defer func() { _ = f.Close() }()
		if set, err = readWorkbook(f); err != nil {
			return err
		}
	}

	out, err := os.Create(outPath)
	if err != nil {
		return fmt.Errorf("create output file: %w", err)
	}
	defer func() { _ = out.Close() }()

	if err := writeSeed(out, set); err != nil {
		return err
	}
	log.Printf("Generated %d ICMS rates, %d reform phases and %d reductions in %s",
		len(set.matrix), len(set.phases), len(set.reductions), outPath)
	return nil
}

// writeSeed emits one transaction with batched multi-row upserts per table.
func writeSeed(w io.Writer, set *rateSet) error {
	header := fmt.Sprintf("-- Tax rate seed data.\n-- %d ICMS rates, %d reform phases, %d reductions.\nBEGIN;\n",
		len(set.matrix), len(set.phases), len(set.reductions))
	if _, err := io.WriteString(w, header); err != nil {
		return fmt.Errorf("write header: %w", err)
	}

	matrix := make([]string, len(set.matrix))
	for i, e := range set.matrix {
		to := "NULL"
		if e.ValidTo != nil {
			to = sqlDate(*e.ValidTo)
		}
		matrix[i] = fmt.Sprintf("(%s, %s, %s, %s, %s)",
			quote(e.OriginUF), quote(e.DestinationUF), e.Rate.String(), sqlDate(e.ValidFrom), to)
	}
	if err := writeBatches(w, "icms_matrix (origin_uf, destination_uf, rate, valid_from, valid_to)",
		"(origin_uf, destination_uf, valid_from) DO UPDATE SET rate = EXCLUDED.rate, valid_to = EXCLUDED.valid_to",
		matrix); err != nil {
		return err
	}

	phases := make([]string, len(set.phases))
	for i, p := range set.phases {
		phases[i] = fmt.Sprintf("(%s, %s, %s, %s, %s)",
			sqlDate(p.ValidFrom), sqlDate(p.ValidTo), p.CBSRate.String(), p.IBSStateRate.String(), p.IBSCityRate.String())
	}
	if err := writeBatches(w, "reform_phases (valid_from, valid_to, cbs_rate, ibs_state_rate, ibs_city_rate)",
		"(valid_from) DO UPDATE SET valid_to = EXCLUDED.valid_to, cbs_rate = EXCLUDED.cbs_rate, "+
			"ibs_state_rate = EXCLUDED.ibs_state_rate, ibs_city_rate = EXCLUDED.ibs_city_rate",
		phases); err != nil {
		return err
	}

	reductions := make([]string, len(set.reductions))
	for i, r := range set.reductions {
		reductions[i] = fmt.Sprintf("(%s, %s, %s)", quote(r.NCMPrefix), r.Reduction.String(), sqlDate(r.ValidFrom))
	}
	if err := writeBatches(w, "classification_reductions (ncm_prefix, reduction, valid_from)",
		"(ncm_prefix, valid_from) DO UPDATE SET reduction = EXCLUDED.reduction",
		reductions); err != nil {
		return err
	}

	if _, err := io.WriteString(w, "\nCOMMIT;\n"); err != nil {
		return fmt.Errorf("write footer: %w", err)
	}
	return nil
}

func writeBatches(w io.Writer, target, conflict string, values []string) error {
	for i := 0; i < len(values); i += batchSize {
		end := min(i+batchSize, len(values))
		stmt := fmt.Sprintf("\nINSERT INTO %s VALUES\n  %s\nON CONFLICT %s;\n",
			target, strings.Join(values[i:end], ",\n  "), conflict)
		if _, err := io.WriteString(w, stmt); err != nil {
			return fmt.Errorf("write batch at offset %d: %w", i, err)
		}
	}
	return nil
}

func quote(s string) string {
	return "'" + strings.ReplaceAll(s, "'", "''") + "'"
}

func sqlDate(t time.Time) string {
	return "'" + t.Format(time.DateOnly) + "'"
}
