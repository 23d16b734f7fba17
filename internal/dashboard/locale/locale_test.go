package locale

import "testing"

func TestLoad(t *testing.T) {
	for _, name := range []string{"ru", "en"} {
		t.Run(name, func(t *testing.T) {
			loc, err := Load(name)
			if err != nil {
				t.Fatal(err)
			}
			if loc.Name != name {
				t.Errorf("name = %q", loc.Name)
			}
			if len(loc.PageSizes) != 5 {
				t.Errorf("page sizes = %v", loc.PageSizes)
			}
			paginate, ok := loc.Language["paginate"].(map[string]any)
			if !ok || paginate["next"] != "→" {
				t.Errorf("paginate = %#v", loc.Language["paginate"])
			}
			if loc.Column("gold", "x") == "x" {
				t.Error("gold column title missing")
			}
		})
	}
}

func TestLoadUnknown(t *testing.T) {
	if _, err := Load("xx"); err == nil {
		t.Error("expected error for unknown locale")
	}
}

func TestColumnFallback(t *testing.T) {
	var loc *Locale
	if got := loc.Column("gold", "Gold"); got != "Gold" {
		t.Errorf("nil locale column = %q", got)
	}
}
