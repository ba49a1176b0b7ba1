package table

import (
	"fmt"
	"math"
	"testing"

	"github.com/specialistvlad/radiobatch/internal/model"
	"pgregory.net/rapid"
)

func genResults(t *rapid.T) []model.PatientResult {
	ids := rapid.SliceOfNDistinct(rapid.StringMatching(`case-[a-z0-9]{1,6}`), 1, 12, rapid.ID[string]).Draw(t, "ids")
	features := rapid.SliceOfN(rapid.StringMatching(`original_[a-z]{1,5}`), 0, 6).Draw(t, "features")

	results := make([]model.PatientResult, 0, len(ids))
	for _, id := range ids {
		r := model.NewPatientResult(id)
		labels := rapid.IntRange(0, model.MaxLabels).Draw(t, "labels_"+id)
		for rank := 1; rank <= labels; rank++ {
			vec := model.FeatureVector{}
			for _, name := range features {
				if rapid.Bool().Draw(t, fmt.Sprintf("has_%s_%d_%s", id, rank, name)) {
					vec[name] = rapid.Float64Range(-1e6, 1e6).Draw(t, "value")
				}
			}
			r.Add(rank, vec)
		}
		results = append(results, r)
	}
	return results
}

func TestBuild_OneRowPerCase(t *testing.T) {
	rapid.Check(t, func(t *rapid.T) {
		results := genResults(t)

		f, err := Build(results)
		if err != nil {
			t.Fatalf("build failed: %v", err)
		}
		rows := f.Index()
		if len(rows) != len(results) {
			t.Fatalf("expected %d rows, got %d", len(results), len(rows))
		}
		for i, r := range results {
			if rows[i] != r.ID {
				t.Fatalf("row %d: expected %q, got %q", i, r.ID, rows[i])
			}
		}
	})
}

func TestBuild_OrderIndependent(t *testing.T) {
	rapid.Check(t, func(t *rapid.T) {
		results := genResults(t)
		shuffled := rapid.Permutation(results).Draw(t, "shuffled")

		a, err := Build(results)
		if err != nil {
			t.Fatalf("build failed: %v", err)
		}
		b, err := Build(shuffled)
		if err != nil {
			t.Fatalf("build failed: %v", err)
		}

		colsA, colsB := a.Columns(), b.Columns()
		if fmt.Sprint(colsA) != fmt.Sprint(colsB) {
			t.Fatalf("column universe differs: %v vs %v", colsA, colsB)
		}
		for _, r := range results {
			for _, col := range colsA {
				va, vb := a.Value(r.ID, col), b.Value(r.ID, col)
				if math.IsNaN(va) != math.IsNaN(vb) || (!math.IsNaN(va) && va != vb) {
					t.Fatalf("cell (%s, %s) differs: %v vs %v", r.ID, col, va, vb)
				}
			}
		}
	})
}
