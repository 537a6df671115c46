package service

import (
	"fmt"
	"regexp"
	"strconv"

	"matka/models"

	"github.com/shopspring/decimal"
)

var (
	twoDigitPattern    = regexp.MustCompile(`^[0-9]{2}$`)
	positionPattern    = regexp.MustCompile(`^[lr][0-9]$`)
	crossDigitsPattern = regexp.MustCompile(`^[0-9]{2,4}$`)
)

const (
	selectionOdd  = "odd"
	selectionEven = "even"
)

// ValidateSelection checks that a selected number is legal for the game kind
func ValidateSelection(kind models.GameKind, selected string) error {
	var ok bool
	switch kind {
	case models.GameKindJodi:
		ok = twoDigitPattern.MatchString(selected)
	case models.GameKindOddEven:
		ok = selected == selectionOdd || selected == selectionEven
	case models.GameKindHurf:
		ok = positionPattern.MatchString(selected) || twoDigitPattern.MatchString(selected)
	case models.GameKindCross:
		ok = crossDigitsPattern.MatchString(selected)
	default:
		return fmt.Errorf("%w: unknown game type %q", ErrInvalidSelection, kind)
	}

	if !ok {
		return fmt.Errorf("%w: %q is not valid for %s", ErrInvalidSelection, selected, kind)
	}
	return nil
}

// ValidateResult checks that a declared market result is exactly two decimal digits
func ValidateResult(result string) error {
	if !twoDigitPattern.MatchString(result) {
		return fmt.Errorf("%w: %q must be two digits", ErrInvalidResult, result)
	}
	return nil
}

// Settle decides whether a bet's selection wins against a declared result
func Settle(kind models.GameKind, selected, result string) (models.BetStatus, error) {
	var won bool
	switch kind {
	case models.GameKindJodi:
		won = selected == result

	case models.GameKindOddEven:
		n, err := strconv.Atoi(result)
		if err != nil {
			return "", fmt.Errorf("%w: %q is not a number", ErrInvalidResult, result)
		}
		isOdd := n%2 != 0
		won = (selected == selectionOdd && isOdd) || (selected == selectionEven && !isOdd)

	case models.GameKindHurf:
		if positionPattern.MatchString(selected) {
			if len(result) != 2 {
				return "", fmt.Errorf("%w: %q must be two characters", ErrInvalidResult, result)
			}
			// l compares against the left digit, r against the right digit
			pos := 0
			if selected[0] == 'r' {
				pos = 1
			}
			won = selected[1] == result[pos]
		} else {
			won = selected == result
		}

	case models.GameKindCross:
		won = isCrossPermutation(selected, result)

	default:
		return "", fmt.Errorf("%w: unknown game type %q", ErrInvalidSelection, kind)
	}

	if won {
		return models.BetStatusWon, nil
	}
	return models.BetStatusLost, nil
}

// isCrossPermutation reports whether result is two digits taken from distinct positions of selected
func isCrossPermutation(selected, result string) bool {
	if len(result) != 2 {
		return false
	}
	for i := 0; i < len(selected); i++ {
		for j := 0; j < len(selected); j++ {
			if i != j && selected[i] == result[0] && selected[j] == result[1] {
				return true
			}
		}
	}
	return false
}

// PotentialWinnings prices a bet: amount * ratio, truncated to whole minor units
func PotentialWinnings(amount int64, payoutRatio decimal.Decimal) int64 {
	return decimal.NewFromInt(amount).Mul(payoutRatio).Floor().IntPart()
}
