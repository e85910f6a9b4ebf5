package app

import "testing"

func TestParseCommand(t *testing.T) {
	tests := []struct {
		name string
		args []string
		want Command
	}{
		{name: "引数なしはserve", args: nil, want: CommandServe},
		{name: "serve", args: []string{"serve"}, want: CommandServe},
		{name: "worker", args: []string{"worker"}, want: CommandWorker},
		{name: "migrate", args: []string{"migrate"}, want: CommandMigrate},
		{name: "healthcheck", args: []string{"healthcheck"}, want: CommandHealthcheck},
		{name: "未知のコマンドはserve", args: []string{"unknown"}, want: CommandServe},
		{name: "先頭以降の引数は無視", args: []string{"worker", "--flag", "value"}, want: CommandWorker},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := ParseCommand(tt.args); got != tt.want {
				t.Errorf("ParseCommand(%v) = %q, want %q", tt.args, got, tt.want)
			}
		})
	}
}
