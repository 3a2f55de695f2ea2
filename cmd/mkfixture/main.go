// mkfixture writes a synthetic assessment and subject cohort as Parquet, for
// exercising respderive end to end.
// Usage: go run ./cmd/mkfixture --out testdata --subjects 50 --seed 7
package main

import (
	"flag"
	"fmt"
	"math"
	"math/rand"
	"os"
	"path/filepath"
	"time"

	"github.com/gyeh/oncoresp/internal/model"
	"github.com/gyeh/oncoresp/internal/parquetio"
)

const visitEvery = 42

func main() {
	out := flag.String("out", "testdata", "output directory")
	subjects := flag.Int("subjects", 50, "number of subjects")
	visits := flag.Int("visits", 6, "post-baseline visits per subject")
	hemeShare := flag.Float64("heme", 0.2, "share of subjects with hematologic (dFLC) data instead of lesions")
	seed := flag.Int64("seed", 1, "random seed")
	flag.Parse()

	if err := os.MkdirAll(*out, 0o755); err != nil {
		fmt.Fprintf(os.Stderr, "create output dir: %v\n", err)
		os.Exit(1)
	}

	rng := rand.New(rand.NewSource(*seed))
	start := time.Date(2024, 1, 8, 0, 0, 0, 0, time.UTC)

	var rows []model.AssessmentRow
	var subjRows []model.SubjectRow
	kinds := map[string]int{}
	for i := 1; i <= *subjects; i++ {
		id := fmt.Sprintf("SUBJ-%04d", i)
		firstDose := start.AddDate(0, 0, rng.Intn(120))
		subj := model.SubjectRow{SubjectID: id, FirstDoseDate: firstDose.Format(model.DateLayout)}

		var kind string
		if rng.Float64() < *hemeShare {
			kind = "heme"
			rows = append(rows, hemeSubject(rng, id, firstDose, *visits)...)
		} else {
			var r []model.AssessmentRow
			r, kind = solidSubject(rng, id, firstDose, *visits)
			rows = append(rows, r...)
		}
		kinds[kind]++

		switch p := rng.Float64(); {
		case p < 0.05:
			d := firstDose.AddDate(0, 0, 30+rng.Intn(300)).Format(model.DateLayout)
			subj.DeathDate = &d
		case p < 0.15:
			d := firstDose.AddDate(0, 0, 60+rng.Intn(200)).Format(model.DateLayout)
			subj.NewTherapyDate = &d
		case p < 0.22:
			d := firstDose.AddDate(0, 0, 60+rng.Intn(200)).Format(model.DateLayout)
			reason := "WITHDREW CONSENT"
			subj.DiscontinuationDate = &d
			subj.DiscontinuationReason = &reason
		}
		subjRows = append(subjRows, subj)
	}

	assessPath := filepath.Join(*out, "assessments.parquet")
	if err := parquetio.WriteFile(assessPath, rows); err != nil {
		fmt.Fprintf(os.Stderr, "write assessments: %v\n", err)
		os.Exit(1)
	}
	subjPath := filepath.Join(*out, "subjects.parquet")
	if err := parquetio.WriteFile(subjPath, subjRows); err != nil {
		fmt.Fprintf(os.Stderr, "write subjects: %v\n", err)
		os.Exit(1)
	}

	fmt.Printf("Wrote %d assessment rows to %s\n", len(rows), assessPath)
	fmt.Printf("Wrote %d subject rows to %s\n", len(subjRows), subjPath)
	fmt.Println("Subject trajectories:")
	for _, k := range []string{"responder", "stable", "progressor", "heme"} {
		fmt.Printf("  %-10s %d\n", k, kinds[k])
	}
}

// solidSubject generates target lesions with a responding, stable or
// progressing trajectory plus one non-target lesion.
func solidSubject(rng *rand.Rand, id string, firstDose time.Time, visits int) ([]model.AssessmentRow, string) {
	nLesions := 1 + rng.Intn(4)
	base := make([]float64, nLesions)
	for i := range base {
		base[i] = float64(10 + rng.Intn(50))
	}

	kind := []string{"responder", "stable", "progressor"}[rng.Intn(3)]
	perVisit := map[string]float64{"responder": -0.15, "stable": 0.0, "progressor": 0.12}[kind]

	var rows []model.AssessmentRow
	for v := 0; v <= visits; v++ {
		date := firstDose.AddDate(0, 0, v*visitEvery-7)
		label := "BASELINE"
		if v > 0 {
			label = fmt.Sprintf("WEEK %d", v*visitEvery/7)
		}
		scale := 1 + perVisit*float64(v) + (rng.Float64()-0.5)*0.05
		if scale < 0 {
			scale = 0
		}
		for i, b := range base {
			val := float64(int(b*scale*10)) / 10
			rows = append(rows, lesionRow(id, "TL", fmt.Sprintf("T%02d", i+1), label, date, &val, nil))
		}
		status := "PRESENT"
		if kind == "progressor" && v == visits {
			status = "UNEQUIVOCAL PROGRESSION"
		}
		rows = append(rows, lesionRow(id, "NTL", "N01", label, date, nil, &status))
	}
	return rows, kind
}

// hemeSubject generates a falling dFLC series with immunofixation results.
func hemeSubject(rng *rand.Rand, id string, firstDose time.Time, visits int) []model.AssessmentRow {
	base := float64(100 + rng.Intn(400))
	var rows []model.AssessmentRow
	for v := 0; v <= visits; v++ {
		date := firstDose.AddDate(0, 0, v*28-3)
		label := "BASELINE"
		if v > 0 {
			label = fmt.Sprintf("CYCLE %d", v+1)
		}
		dflc := float64(int(base*math.Pow(0.55, float64(v))*10)) / 10
		rows = append(rows, lesionRow(id, "DFLC", "", label, date, &dflc, nil))
		ife := "POSITIVE"
		if v >= 3 && rng.Float64() < 0.5 {
			ife = "NEGATIVE"
		}
		rows = append(rows, lesionRow(id, "IFE", "", label, date, nil, &ife))
	}
	return rows
}

func lesionRow(id, param, lesion, visit string, date time.Time, value *float64, qual *string) model.AssessmentRow {
	r := model.AssessmentRow{
		SubjectID:        id,
		ParameterCode:    param,
		Visit:            &visit,
		VisitDate:        date.Format(model.DateLayout),
		Value:            value,
		QualitativeValue: qual,
	}
	if lesion != "" {
		r.LesionID = &lesion
	}
	return r
}
