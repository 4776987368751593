package utils

import (
	"fmt"
	"strconv"
	"strings"
)

// Deposit percentages a customer may choose at checkout.
var DepositChoices = []int{25, 50, 100}

func ValidDepositChoice(pct int) bool {
	for _, c := range DepositChoices {
		if pct == c {
			return true
		}
	}
	return false
}

// DepositCharge computes the amount to charge for a deposit choice.
// Pembulatan half-up dengan aritmetika integer: (total*pct + 50) / 100,
// jadi DepositCharge(9999, 50) == 5000. Rupiah tidak punya pecahan dan
// tidak ada konversi minor-unit.
func DepositCharge(total int64, pct int) (int64, error) {
	if !ValidDepositChoice(pct) {
		return 0, fmt.Errorf("pilihan deposit tidak valid: %d", pct)
	}
	charge := (total*int64(pct) + 50) / 100
	if charge <= 0 {
		return 0, fmt.Errorf("tidak ada yang perlu dibayar")
	}
	return charge, nil
}

// BalanceCharge is the remaining amount; rejects zero so we never create a
// zero-value payment session.
func BalanceCharge(remaining int64) (int64, error) {
	if remaining <= 0 {
		return 0, fmt.Errorf("tidak ada sisa tagihan")
	}
	return remaining, nil
}

// FormatRupiah renders integer amount with thousand separators.
func FormatRupiah(amount int64) string {
	sign := ""
	if amount < 0 {
		sign = "-"
		amount = -amount
	}
	return fmt.Sprintf("%sRp%s", sign, formatThousand(amount))
}

func formatThousand(n int64) string {
	if n == 0 {
		return "0"
	}
	str := strconv.FormatInt(n, 10)
	var out strings.Builder
	for i, c := range str {
		if i != 0 && (len(str)-i)%3 == 0 {
			out.WriteByte('.')
		}
		out.WriteRune(c)
	}
	return out.String()
}
