package raw

import "testing"

func TestConfGet(t *testing.T) {
	t.Setenv("LOG_SERVICE", " visitagg ")
	t.Setenv("LOG_FORMAT", " JSON ")

	log := New().Prefix("LOG_")

	tests := []struct {
		name string
		got  string
		want string
	}{
		{name: "prefixed hit trimmed", got: log.Get("SERVICE", "x"), want: "visitagg"},
		{name: "missing returns default", got: log.Get("MISSING", "defv"), want: "defv"},
		{name: "lowered", got: log.GetLower("FORMAT", "console"), want: "json"},
		{name: "lowered default", got: log.GetLower("NOPE", "Console"), want: "console"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if tt.got != tt.want {
				t.Fatalf("got %q, want %q", tt.got, tt.want)
			}
		})
	}
}

func TestConfGetBool(t *testing.T) {
	log := New().Prefix("LOG_")

	t.Setenv("LOG_T1", "true")
	t.Setenv("LOG_T2", "1")
	t.Setenv("LOG_T3", "YES")
	t.Setenv("LOG_T4", "on")
	t.Setenv("LOG_F1", "false")
	t.Setenv("LOG_F2", "0")
	t.Setenv("LOG_WS", "   true   ")

	tests := []struct {
		key  string
		def  bool
		want bool
	}{
		{key: "T1", want: true},
		{key: "T2", want: true},
		{key: "T3", want: true},
		{key: "T4", want: true},
		{key: "F1", def: true, want: false},
		{key: "F2", def: true, want: false},
		{key: "WS", want: true},
		{key: "MISSING", def: true, want: true},
	}
	for _, tt := range tests {
		t.Run(tt.key, func(t *testing.T) {
			if got := log.GetBool(tt.key, tt.def); got != tt.want {
				t.Fatalf("GetBool(%q) = %v, want %v", tt.key, got, tt.want)
			}
		})
	}
}

func TestConfGetInt(t *testing.T) {
	log := New().Prefix("LOG_")

	t.Setenv("LOG_OK", "42")
	t.Setenv("LOG_WS", "  7  ")
	t.Setenv("LOG_NONNUM", "12x")
	t.Setenv("LOG_NEG", "-5") // the simple parser has no sign handling

	tests := []struct {
		key  string
		def  int
		want int
	}{
		{key: "OK", want: 42},
		{key: "WS", def: 1, want: 7},
		{key: "NONNUM", def: 9, want: 9},
		{key: "NEG", def: 3, want: 3},
		{key: "MISSING", def: 11, want: 11},
	}
	for _, tt := range tests {
		t.Run(tt.key, func(t *testing.T) {
			if got := log.GetInt(tt.key, tt.def); got != tt.want {
				t.Fatalf("GetInt(%q) = %d, want %d", tt.key, got, tt.want)
			}
		})
	}
}
