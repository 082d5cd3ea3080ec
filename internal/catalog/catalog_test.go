package catalog

import (
	"sort"
	"testing"
)

func TestNewDefault(t *testing.T) {
	c, err := New("")
	if err != nil {
		t.Fatalf("New failed: %v", err)
	}

	names := c.Names()
	if len(names) != 18 {
		t.Errorf("Expected 18 overlays, got %d", len(names))
	}
	if !sort.StringsAreSorted(names) {
		t.Errorf("Expected sorted names, got %v", names)
	}

	u, ok := c.URL("MWDB_Coasts_NA_1.cnob")
	if !ok {
		t.Fatal("Expected MWDB_Coasts_NA_1.cnob in catalog")
	}
	want := "https://www.giss.nasa.gov/tools/panoply/overlays/MWDB_Coasts_NA_1.cnob"
	if u != want {
		t.Errorf("Expected %s, got %s", want, u)
	}

	if _, ok := c.URL("not_there.cnob"); ok {
		t.Error("Expected unknown overlay to be absent")
	}
}

func TestNewBaseURLWithoutSlash(t *testing.T) {
	c, err := New("http://mirror.example/overlays")
	if err != nil {
		t.Fatalf("New failed: %v", err)
	}
	u, _ := c.URL("Earth_5x4.cnob")
	if u != "http://mirror.example/overlays/Earth_5x4.cnob" {
		t.Errorf("Unexpected URL %s", u)
	}
}

func TestHelpersAreDownloadable(t *testing.T) {
	c, _ := New("")
	for _, res := range []int{1, 3} {
		for _, name := range []string{Coastlines(res), Countries(res), States(res)} {
			if _, ok := c.URL(name); !ok {
				t.Errorf("%s missing from catalog", name)
			}
		}
	}
	if _, ok := c.URL(DefaultOverlay); !ok {
		t.Errorf("%s missing from catalog", DefaultOverlay)
	}
}

func TestNamesReturnsCopy(t *testing.T) {
	c := FromEntries(map[string]string{"b": "u2", "a": "u1"})
	names := c.Names()
	names[0] = "changed"
	if c.Names()[0] != "a" {
		t.Error("Names exposed internal slice")
	}
}
