package core

import "testing"

func TestSummarize(t *testing.T) {
	doc := Parse("name,age,score\nAlice,30,1.5\nBob,,x\nCarol,40,2.5\nDan,20")
	got := Summarize(doc)

	if len(got) != 3 {
		t.Fatalf("len(Summarize) = %d, want 3", len(got))
	}

	name := got[0]
	if name.Column != "name" || name.Filled != 4 || name.Numeric != 0 || name.Min != nil {
		t.Errorf("name summary = %+v", name)
	}

	age := got[1]
	if age.Filled != 3 || age.Empty != 1 || age.Numeric != 3 {
		t.Errorf("age counts = %+v", age)
	}
	checkStat(t, "age min", age.Min, 20)
	checkStat(t, "age max", age.Max, 40)
	checkStat(t, "age mean", age.Mean, 30)
	checkStat(t, "age median", age.Median, 30)

	score := got[2]
	if score.Filled != 3 || score.Empty != 1 || score.Numeric != 2 {
		t.Errorf("score counts = %+v", score)
	}
	checkStat(t, "score mean", score.Mean, 2)
}

func checkStat(t *testing.T, name string, got *float64, want float64) {
	t.Helper()
	if got == nil {
		t.Errorf("%s = nil, want %v", name, want)
		return
	}
	if *got != want {
		t.Errorf("%s = %v, want %v", name, *got, want)
	}
}

func TestSummarize_NonFiniteCellsAreNotNumeric(t *testing.T) {
	got := Summarize(Parse("v\n1\nNaN\ninf\n-Inf\n+Infinity\n3"))[0]

	if got.Filled != 6 || got.Empty != 0 || got.Numeric != 2 {
		t.Errorf("counts = %+v, want 6 filled and 2 numeric", got)
	}
	checkStat(t, "min", got.Min, 1)
	checkStat(t, "max", got.Max, 3)
	checkStat(t, "mean", got.Mean, 2)
}

func TestSummarize_OnlyNonFiniteCells(t *testing.T) {
	got := Summarize(Parse("v\nNaN\nInf"))[0]

	if got.Numeric != 0 || got.Mean != nil || got.Min != nil {
		t.Errorf("summary = %+v, want no numeric stats", got)
	}
}
