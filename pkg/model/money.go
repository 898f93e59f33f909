package model

import (
	"github.com/shopspring/decimal"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/bsontype"
)

// Money is a decimal monetary amount stored in Mongo as a string so no
// precision is lost across read/write cycles. Rounding to two places happens
// only at the presentation edge.
type Money struct {
	decimal.Decimal
}

func MoneyFrom(d decimal.Decimal) Money {
	return Money{Decimal: d}
}

func MoneyFromString(s string) (Money, error) {
	d, err := decimal.NewFromString(s)
	if err != nil {
		return Money{}, err
	}
	return Money{Decimal: d}, nil
}

func ZeroMoney() Money {
	return Money{Decimal: decimal.Zero}
}

// MarshalJSON rounds to two decimal places. API responses present cents;
// arithmetic and storage keep full precision.
func (m Money) MarshalJSON() ([]byte, error) {
	return m.Decimal.Round(2).MarshalJSON()
}

func (m Money) MarshalBSONValue() (bsontype.Type, []byte, error) {
	return bson.MarshalValue(m.Decimal.String())
}

func (m *Money) UnmarshalBSONValue(t bsontype.Type, data []byte) error {
	var s string
	if err := bson.UnmarshalValue(t, data, &s); err != nil {
		return err
	}
	d, err := decimal.NewFromString(s)
	if err != nil {
		return err
	}
	m.Decimal = d
	return nil
}
