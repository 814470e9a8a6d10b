package sqlstore

type jobRunTableModel struct {
	RunID      string  `db:"run_id"`
	JobName    string  `db:"job_name"`
	WeekKey    string  `db:"week_key"`
	Status     string  `db:"status"`
	Attempts   int     `db:"attempts"`
	Detail     string  `db:"detail"`
	LastError  *string `db:"last_error"`
	StartedAt  string  `db:"started_at"`
	FinishedAt *string `db:"finished_at"`
}
