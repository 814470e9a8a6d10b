package sqlstore

type settingTableModel struct {
	Date  string `db:"date"`
	Name  string `db:"name"`
	Value string `db:"value"`
}
