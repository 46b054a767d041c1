package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

// DateLayout — формат даты в таблицах консоли.
const DateLayout = "01/02/2006"

// SumLineItems складывает итоговые суммы позиций.
func SumLineItems(items []OrderLineItem) decimal.Decimal {
	sum := decimal.Zero
	for _, item := range items {
		sum = sum.Add(item.TotalPrice)
	}
	return sum
}

// FormatFinalPrice возвращает сумму позиций с ровно двумя знаками после запятой.
func FormatFinalPrice(items []OrderLineItem) string {
	return SumLineItems(items).StringFixed(2)
}

// FormatMoney форматирует денежное значение с двумя знаками.
func FormatMoney(amount decimal.Decimal) string {
	return amount.StringFixed(2)
}

// FormatDate форматирует дату для отображения. Нулевая дата выводится пустой строкой.
func FormatDate(t time.Time) string {
	if t.IsZero() {
		return ""
	}
	return t.Local().Format(DateLayout)
}
