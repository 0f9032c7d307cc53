// Package money работает с денежными суммами в минимальных единицах (копейках).
// Плавающая точка для денег не используется нигде: ввод разбирается через decimal, арифметика целочисленная.
package money

import (
	"math"
	"strings"

	"github.com/DRSN-tech/storefront/pkg/e"
	"github.com/shopspring/decimal"
)

// MaxAmount ограничивает цену товара: 1 млрд рублей в копейках.
const MaxAmount int64 = 1_000_000_000 * 100

var hundred = decimal.NewFromInt(100)

// Parse переводит строку вида "599.99" или "600" в копейки.
// Отрицательные значения, больше двух знаков после запятой и суммы выше MaxAmount отклоняются.
func Parse(s string) (int64, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return 0, e.ErrInvalidPrice
	}

	d, err := decimal.NewFromString(s)
	if err != nil {
		return 0, e.ErrInvalidPrice
	}

	if d.IsNegative() {
		return 0, e.ErrInvalidPrice
	}

	if d.Exponent() < -2 && !d.Equal(d.Round(2)) {
		return 0, e.ErrPricePrecision
	}

	cents := d.Mul(hundred).Round(0)
	if cents.GreaterThan(decimal.NewFromInt(MaxAmount)) {
		return 0, e.ErrInvalidPrice
	}

	return cents.IntPart(), nil
}

// Format печатает сумму в копейках как "1234.50".
func Format(minor int64) string {
	return decimal.New(minor, -2).StringFixed(2)
}

// LineTotal считает стоимость строки заказа с проверкой переполнения.
func LineTotal(unitPrice, qty int64) (int64, error) {
	if unitPrice < 0 || qty < 0 {
		return 0, e.ErrAmountOverflow
	}
	if unitPrice != 0 && qty > math.MaxInt64/unitPrice {
		return 0, e.ErrAmountOverflow
	}

	return unitPrice * qty, nil
}

// Add складывает неотрицательные суммы с проверкой переполнения.
func Add(a, b int64) (int64, error) {
	if a < 0 || b < 0 || a > math.MaxInt64-b {
		return 0, e.ErrAmountOverflow
	}

	return a + b, nil
}
