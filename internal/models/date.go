package models

import (
	"fmt"
	"time"
)

var monthsRU = [...]string{"янв", "фев", "мар", "апр", "май", "июн", "июл", "авг", "сен", "окт", "ноя", "дек"}

// FormatDate renders t like DefaultJoinDate, e.g. "15 дек 2024".
func FormatDate(t time.Time) string {
	return fmt.Sprintf("%d %s %d", t.Day(), monthsRU[t.Month()-1], t.Year())
}
