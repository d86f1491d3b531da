package core

import "testing"

func TestSerialize(t *testing.T) {
	tests := []struct {
		name    string
		headers []string
		rows    []Record
		want    string
	}{
		{
			name:    "no headers",
			headers: nil,
			want:    "",
		},
		{
			name:    "empty dataset is header only",
			headers: []string{"name", "age"},
			want:    "name,age",
		},
		{
			name:    "rows in header order",
			headers: []string{"name", "age"},
			rows: []Record{
				{Fields: map[string]string{"age": "30", "name": "Alice"}},
				{Fields: map[string]string{"name": "Bob", "age": "25"}},
			},
			want: "name,age\nAlice,30\nBob,25",
		},
		{
			name:    "undefined values are empty",
			headers: []string{"a", "b", "c"},
			rows: []Record{
				{Fields: map[string]string{"b": "2"}},
			},
			want: "a,b,c\n,2,",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Serialize(tt.headers, tt.rows); got != tt.want {
				t.Errorf("Serialize() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestSerialize_InverseOfParse(t *testing.T) {
	texts := []string{
		"name,age\nAlice,30\nBob,25",
		"a,b,c\n1,2,3\n4,5,6",
		"single\nx\ny",
	}
	for _, text := range texts {
		if got := Parse(text).String(); got != text {
			t.Errorf("Serialize(Parse(%q)) = %q", text, got)
		}
	}
}

func TestSerialize_StableAfterOneRoundTrip(t *testing.T) {
	texts := []string{
		"name,age\nAlice,30\nBob,25",
		"a,b,c\n1\n1,2,3,4\n",
		"a,a\n1,2\n3",
		"\"q,uoted\",b\n\"x,y\",z",
	}

	for _, text := range texts {
		first := Parse(text)
		second := Parse(first.String())

		if len(first.Rows) != len(second.Rows) {
			t.Fatalf("%q: row count %d then %d", text, len(first.Rows), len(second.Rows))
		}
		for i := range first.Rows {
			for _, h := range first.Headers {
				if a, b := first.Rows[i].Get(h), second.Rows[i].Get(h); a != b {
					t.Errorf("%q: row %d column %q = %q then %q", text, i, h, a, b)
				}
			}
		}
	}
}
