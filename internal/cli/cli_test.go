package cli

import (
	"testing"

	"github.com/janelia-flyem/cleave/pkg/cleave"
	cerrors "github.com/janelia-flyem/cleave/pkg/errors"
	"github.com/janelia-flyem/cleave/pkg/graph"
)

func TestParseSeeds(t *testing.T) {
	seeds, err := parseSeeds([]string{"1=100,200", "2=300", "1=150"})
	if err != nil {
		t.Fatal(err)
	}
	if len(seeds) != 2 {
		t.Fatalf("got %d groups, want 2", len(seeds))
	}
	want1 := []graph.SupervoxelID{100, 200, 150}
	got1 := seeds[cleave.GroupLabel(1)]
	if len(got1) != len(want1) {
		t.Fatalf("group 1 = %v, want %v", got1, want1)
	}
	for i := range want1 {
		if got1[i] != want1[i] {
			t.Errorf("group 1[%d] = %d, want %d", i, got1[i], want1[i])
		}
	}
	if len(seeds[cleave.GroupLabel(2)]) != 1 {
		t.Errorf("group 2 = %v", seeds[cleave.GroupLabel(2)])
	}
}

func TestParseSeedsEmpty(t *testing.T) {
	seeds, err := parseSeeds(nil)
	if err != nil || seeds != nil {
		t.Fatalf("parseSeeds(nil) = %v, %v", seeds, err)
	}
}

func TestParseSeedsErrors(t *testing.T) {
	tests := []string{
		"no-equals",
		"x=100",
		"1=abc",
		"1=",
	}
	for _, f := range tests {
		t.Run(f, func(t *testing.T) {
			_, err := parseSeeds([]string{f})
			if !cerrors.Is(err, cerrors.ErrCodeInvalidInput) {
				t.Errorf("parseSeeds(%q) = %v, want INVALID_INPUT", f, err)
			}
		})
	}
}

func TestParsePoints(t *testing.T) {
	points, err := parsePoints([]string{"1=100:200:300", "2=-5:0:7"})
	if err != nil {
		t.Fatal(err)
	}
	if got := points[cleave.GroupLabel(1)][0]; got != (graph.Point{100, 200, 300}) {
		t.Errorf("group 1 point = %v", got)
	}
	if got := points[cleave.GroupLabel(2)][0]; got != (graph.Point{-5, 0, 7}) {
		t.Errorf("group 2 point = %v", got)
	}
}

func TestParsePointsErrors(t *testing.T) {
	tests := []string{
		"1=100:200",
		"1=100:200:300:400",
		"1=a:b:c",
		"nope",
	}
	for _, f := range tests {
		t.Run(f, func(t *testing.T) {
			_, err := parsePoints([]string{f})
			if !cerrors.Is(err, cerrors.ErrCodeInvalidInput) {
				t.Errorf("parsePoints(%q) = %v, want INVALID_INPUT", f, err)
			}
		})
	}
}
