package life

import "testing"

func TestUniverseBlinker(t *testing.T) {
	g := Square(8)
	u := NewUniverse(g, Blinker(4, 4))
	defer u.Close()

	row := Fill(g, Blinker(4, 4))
	column := Fill(g, PatternSeed(Point{4, 3}, Point{4, 4}, Point{4, 5}))

	for step, want := range []Cells{row, column, row, column} {
		if !u.Cells().Equal(want) {
			t.Fatalf("generation %d differs at %v", step, Diff(u.Cells(), want))
		}
		u.Step()
	}
	if u.Generation() != 4 {
		t.Errorf("Generation() = %d, want 4", u.Generation())
	}
}

func TestUniverseGliderWrapsAround(t *testing.T) {
	g := Square(16)
	u := NewUniverse(g, Glider(2, 2))
	defer u.Close()

	u.StepN(4)
	shifted := Fill(g, Glider(3, 3))
	if !u.Cells().Equal(shifted) {
		t.Fatalf("glider after 4 steps differs at %v", Diff(u.Cells(), shifted))
	}

	// 4 steps per diagonal cell, 16 cells per lap.
	u.StepN(4*16 - 4)
	start := Fill(g, Glider(2, 2))
	if !u.Cells().Equal(start) {
		t.Errorf("glider did not return after one lap; differs at %v", Diff(u.Cells(), start))
	}
	if u.Population() != 5 {
		t.Errorf("Population() = %d, want 5", u.Population())
	}
}

func TestUniverseParallelMatchesSequential(t *testing.T) {
	g := Grid{Width: 200, Height: 131}
	seq := NewUniverse(g, RandomSeed(0.4, NewSource(99)), WithWorkers(1))
	defer seq.Close()
	par := NewUniverse(g, RandomSeed(0.4, NewSource(99)), WithWorkers(4))
	defer par.Close()

	for step := range 25 {
		if d := Diff(seq.Cells(), par.Cells()); len(d) != 0 {
			t.Fatalf("generation %d: %d cells differ, first at %d", step, len(d), d[0])
		}
		seq.Step()
		par.Step()
	}
}

func TestUniverseDeterministic(t *testing.T) {
	g := Square(64)
	a := NewUniverse(g, RandomSeed(0.4, NewSource(3)))
	defer a.Close()
	b := NewUniverse(g, RandomSeed(0.4, NewSource(3)))
	defer b.Close()

	a.StepN(50)
	b.StepN(50)
	if !a.Cells().Equal(b.Cells()) {
		t.Error("identical seeds diverged")
	}
}

func TestUniverseAliveWraps(t *testing.T) {
	g := Square(8)
	u := NewUniverse(g, PatternSeed(Point{7, 0}))
	defer u.Close()

	if !u.Alive(-1, 0) || !u.Alive(7, 8) {
		t.Error("Alive did not wrap coordinates")
	}
	if u.Alive(0, 0) {
		t.Error("Alive(0, 0) = true, want false")
	}
}

func TestNewUniverseFromCells(t *testing.T) {
	g := Square(8)
	c := Fill(g, Blinker(4, 4))
	u, err := NewUniverseFromCells(g, c)
	if err != nil {
		t.Fatalf("NewUniverseFromCells() error = %v", err)
	}
	defer u.Close()

	c[0] = Alive
	if u.Alive(0, 0) {
		t.Error("universe aliases the caller's cells")
	}

	if _, err := NewUniverseFromCells(g, make(Cells, 3)); err == nil {
		t.Error("NewUniverseFromCells with wrong size should fail")
	}
}

func TestNewUniverseFromCellsNormalizes(t *testing.T) {
	g := Square(8)
	c := NewCells(g)
	c[g.Index(3, 4)] = 2
	c[g.Index(4, 4)] = 7
	c[g.Index(5, 4)] = Alive

	u, err := NewUniverseFromCells(g, c)
	if err != nil {
		t.Fatalf("NewUniverseFromCells() error = %v", err)
	}
	defer u.Close()
	want := NewUniverse(g, CellsSeed(c, g))
	defer want.Close()

	if !u.Cells().Equal(want.Cells()) {
		t.Fatalf("first generation differs at %v", Diff(u.Cells(), want.Cells()))
	}
	u.Step()
	want.Step()
	if d := Diff(u.Cells(), want.Cells()); len(d) != 0 {
		t.Errorf("after one step cells differ at %v", d)
	}
	if !u.Alive(4, 3) || !u.Alive(4, 5) || u.Alive(3, 4) {
		t.Error("blinker from non-binary cells did not turn vertical")
	}
}

func TestUniverseStepAfterClose(t *testing.T) {
	g := Square(64)
	u := NewUniverse(g, Blinker(10, 10), WithWorkers(2))
	u.Close()
	u.Close()
	u.Step()
	if !u.Alive(10, 9) || !u.Alive(10, 11) {
		t.Error("closed universe did not step sequentially")
	}
}

func BenchmarkUniverseStep(b *testing.B) {
	u := NewUniverse(Square(512), RandomSeed(0.4, NewSource(1)))
	defer u.Close()
	b.ResetTimer()
	for b.Loop() {
		u.Step()
	}
}
