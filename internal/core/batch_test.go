package core

import "testing"

func TestPlanBatch(t *testing.T) {
	tests := []struct {
		name      string
		columns   int
		preferred int
		ceiling   int
		want      BatchPlan
	}{
		{
			name:    "wide table on sqlite is reduced",
			columns: 79, preferred: 500, ceiling: 32766,
			want: BatchPlan{BatchSize: 372, WasReduced: true, MaxRowsPerStatement: 372},
		},
		{
			name:    "narrow table keeps preferred",
			columns: 4, preferred: 500, ceiling: 32766,
			want: BatchPlan{BatchSize: 500, MaxRowsPerStatement: 7371},
		},
		{
			name:    "postgres ceiling",
			columns: 79, preferred: 500, ceiling: 65535,
			want: BatchPlan{BatchSize: 500, MaxRowsPerStatement: 746},
		},
		{
			name:    "under raw limit but over safety margin",
			columns: 79, preferred: 400, ceiling: 32766,
			want: BatchPlan{BatchSize: 372, WasReduced: true, MaxRowsPerStatement: 372},
		},
		{
			name:    "exactly safe is not reduced",
			columns: 79, preferred: 372, ceiling: 32766,
			want: BatchPlan{BatchSize: 372, MaxRowsPerStatement: 372},
		},
		{
			name:    "columns above ceiling still plan one row",
			columns: 100, preferred: 10, ceiling: 50,
			want: BatchPlan{BatchSize: 1, WasReduced: true, MaxRowsPerStatement: 1},
		},
		{
			name:    "non-positive preferred uses safe size",
			columns: 10, preferred: 0, ceiling: 1000,
			want: BatchPlan{BatchSize: 90, MaxRowsPerStatement: 90},
		},
		{
			name:    "unknown ceiling keeps preferred",
			columns: 10, preferred: 250, ceiling: 0,
			want: BatchPlan{BatchSize: 250, MaxRowsPerStatement: 250},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := PlanBatch(tt.columns, tt.preferred, tt.ceiling)
			if got != tt.want {
				t.Errorf("PlanBatch(%d, %d, %d) = %+v, want %+v",
					tt.columns, tt.preferred, tt.ceiling, got, tt.want)
			}
			if tt.ceiling > 0 && got.BatchSize*tt.columns > tt.ceiling && got.BatchSize > 1 {
				t.Errorf("plan exceeds ceiling: %d x %d > %d", got.BatchSize, tt.columns, tt.ceiling)
			}
		})
	}
}
