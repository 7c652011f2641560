package contacts

import (
	"context"
	"testing"
)

func TestStaticDirectoryLookup(t *testing.T) {
	dir := NewStaticDirectory([]Contact{
		{
			Name:    "Dana Flowers",
			Address: "100 A St",
			Phones:  []Phone{{Number: "+15551234567", Label: "mobile"}},
			Labels:  []string{"Tuesday run"},
		},
	})

	c, found, err := dir.Lookup(context.Background(), "Dana Flowers")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !found {
		t.Fatal("contact not found")
	}
	if c.Address != "100 A St" || len(c.Phones) != 1 {
		t.Fatalf("contact = %+v", c)
	}

	if _, found, _ := dir.Lookup(context.Background(), "Nobody"); found {
		t.Fatal("unexpected hit")
	}
}
