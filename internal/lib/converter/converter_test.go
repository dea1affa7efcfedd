package converter

import "testing"

func TestConvertSolToLamports(t *testing.T) {
	cases := []struct {
		name   string
		amount float64
		want   uint64
	}{
		{
			name:   "Success",
			amount: 1.5,
			want:   1_500_000_000,
		},
		{
			name:   "Zero",
			amount: 0,
			want:   0,
		},
		{
			name:   "SmallestUnit",
			amount: 0.000000001,
			want:   1,
		},
	}

	for _, tc := range cases {
		tc := tc

		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()

			got := ConvertSolToLamports(tc.amount)
			if got != tc.want {
				t.Errorf("unexpected result, want: %d, got: %d", tc.want, got)
			}
		})
	}
}

func TestConvertLamportsToSol(t *testing.T) {
	cases := []struct {
		name   string
		amount uint64
		want   float64
	}{
		{
			name:   "Success",
			amount: 1_500_000_000,
			want:   1.5,
		},
		{
			name:   "Zero",
			amount: 0,
			want:   0,
		},
		{
			name:   "SmallestUnit",
			amount: 1,
			want:   0.000000001,
		},
	}

	for _, tc := range cases {
		tc := tc

		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()

			got := ConvertLamportsToSol(tc.amount)
			if got != tc.want {
				t.Errorf("unexpected result, want: %f, got: %f", tc.want, got)
			}
		})
	}
}

func TestConvertLamportsToString(t *testing.T) {
	cases := []struct {
		name   string
		amount uint64
		want   string
	}{
		{
			name:   "Success",
			amount: 10000,
			want:   "10000",
		},
		{
			name:   "Zero",
			amount: 0,
			want:   "0",
		},
	}

	for _, tc := range cases {
		tc := tc

		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()

			got := ConvertLamportsToString(tc.amount)
			if got != tc.want {
				t.Errorf("unexpected result, want: %s, got: %s", tc.want, got)
			}
		})
	}
}
