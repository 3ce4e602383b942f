package builder

import (
	"testing"

	"github.com/Klnishant/DiamondPricePrediction/pkg/preprocess"
)

func TestBuildTransform_BranchOrder(t *testing.T) {
	spec := BuildTransform()

	if len(spec.Branches) != 2 {
		t.Fatalf("len(Branches) = %d, want 2", len(spec.Branches))
	}
	if spec.Branches[0].Name != NumericBranch || spec.Branches[0].Kind != preprocess.KindNumeric {
		t.Errorf("first branch = %s/%s, want numeric branch", spec.Branches[0].Name, spec.Branches[0].Kind)
	}
	if spec.Branches[1].Name != CategoricalBranch || spec.Branches[1].Kind != preprocess.KindCategorical {
		t.Errorf("second branch = %s/%s, want categorical branch", spec.Branches[1].Name, spec.Branches[1].Kind)
	}

	want := []string{"carat", "depth", "table", "x", "y", "z", "cut", "color", "clarity"}
	got := spec.Columns()
	if len(got) != len(want) {
		t.Fatalf("Columns() = %v, want %v", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("Columns()[%d] = %q, want %q", i, got[i], want[i])
		}
	}
}

func TestBuildTransform_Steps(t *testing.T) {
	spec := BuildTransform()

	tests := []struct {
		branch int
		want   []preprocess.Operation
	}{
		{0, []preprocess.Operation{preprocess.OpImputeMedian, preprocess.OpStandardize}},
		{1, []preprocess.Operation{preprocess.OpImputeMode, preprocess.OpOrdinalEncode, preprocess.OpStandardize}},
	}

	for _, tt := range tests {
		b := spec.Branches[tt.branch]
		t.Run(b.Name, func(t *testing.T) {
			if len(b.Steps) != len(tt.want) {
				t.Fatalf("Steps = %v, want %v", b.Steps, tt.want)
			}
			for i := range tt.want {
				if b.Steps[i] != tt.want[i] {
					t.Errorf("Steps[%d] = %s, want %s", i, b.Steps[i], tt.want[i])
				}
			}
		})
	}
}

func TestBuildTransform_GroupsDisjointAndExcludeDropSet(t *testing.T) {
	seen := map[string]string{}
	for _, b := range BuildTransform().Branches {
		for _, c := range b.Columns {
			if other, ok := seen[c]; ok {
				t.Errorf("column %q routed by both %s and %s", c, other, b.Name)
			}
			seen[c] = b.Name
		}
	}
	for _, c := range DropColumns() {
		if _, ok := seen[c]; ok {
			t.Errorf("drop column %q must not be routed", c)
		}
	}
}

func TestRankTables(t *testing.T) {
	spec := BuildTransform()
	cat := spec.Branches[1]

	sizes := map[string]int{"cut": 5, "color": 7, "clarity": 8}
	for _, col := range cat.Columns {
		table, ok := cat.RankTable(col)
		if !ok {
			t.Fatalf("no rank table for %q", col)
		}
		if len(table.Categories) != sizes[col] {
			t.Errorf("%s has %d categories, want %d", col, len(table.Categories), sizes[col])
		}
	}

	clarity, _ := cat.RankTable("clarity")
	if clarity.Rank("I1") != 0 || clarity.Rank("IF") != 7 {
		t.Errorf("clarity ranks: I1=%d IF=%d", clarity.Rank("I1"), clarity.Rank("IF"))
	}
	if clarity.Rank("XX") != -1 {
		t.Error("unlisted category should rank -1")
	}
}

func TestBuildTransform_FreshCopies(t *testing.T) {
	first := BuildTransform()
	first.Branches[0].Columns[0] = "mutated"
	first.Branches[1].Ranks[0].Categories[0] = "mutated"

	second := BuildTransform()
	if second.Branches[0].Columns[0] != "carat" {
		t.Error("mutating one spec changed another")
	}
	if second.Branches[1].Ranks[0].Categories[0] != "Fair" {
		t.Error("mutating one rank table changed another")
	}
}

func TestBuildTransform_DropSet(t *testing.T) {
	spec := BuildTransform()
	if spec.Target != "price" || spec.Identifier != "id" {
		t.Errorf("Target/Identifier = %q/%q, want price/id", spec.Target, spec.Identifier)
	}
}
