package dynamodb

import (
	"fmt"
	"time"

	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
	"github.com/shopspring/decimal"

	"github.com/chris/skymiles/pkg/models"
)

// price stores a decimal as a DynamoDB number without going through float64.
type price struct {
	decimal.Decimal
}

func (p price) MarshalDynamoDBAttributeValue() (types.AttributeValue, error) {
	return &types.AttributeValueMemberN{Value: p.String()}, nil
}

func (p *price) UnmarshalDynamoDBAttributeValue(av types.AttributeValue) error {
	var raw string
	switch v := av.(type) {
	case *types.AttributeValueMemberN:
		raw = v.Value
	case *types.AttributeValueMemberS:
		raw = v.Value
	default:
		return fmt.Errorf("unexpected attribute type %T for price", av)
	}
	d, err := decimal.NewFromString(raw)
	if err != nil {
		return fmt.Errorf("failed to parse price %q: %w", raw, err)
	}
	p.Decimal = d
	return nil
}

// flightRecord is the item layout of the flights table.
type flightRecord struct {
	Id            string    `dynamodbav:"id"`
	Code          string    `dynamodbav:"code"`
	Origin        string    `dynamodbav:"origin"`
	Destination   string    `dynamodbav:"destination"`
	Date          string    `dynamodbav:"date"`
	Duration      *int32    `dynamodbav:"duration,omitempty"`
	Price         price     `dynamodbav:"price"`
	BusinessPrice *price    `dynamodbav:"business_price,omitempty"`
	Capacity      int64     `dynamodbav:"capacity"`
	CreatedAt     time.Time `dynamodbav:"created_at"`
}

func toFlightRecord(f *models.Flight) flightRecord {
	r := flightRecord{
		Id:          f.Id,
		Code:        f.Code,
		Origin:      f.Origin,
		Destination: f.Destination,
		Date:        f.Date,
		Duration:    f.Duration,
		Price:       price{f.Price},
		Capacity:    f.Capacity,
		CreatedAt:   f.CreatedAt,
	}
	if f.BusinessPrice != nil {
		r.BusinessPrice = &price{*f.BusinessPrice}
	}
	return r
}

func (r flightRecord) toModel() models.Flight {
	f := models.Flight{
		Id:          r.Id,
		Code:        r.Code,
		Origin:      r.Origin,
		Destination: r.Destination,
		Date:        r.Date,
		Duration:    r.Duration,
		Price:       r.Price.Decimal,
		Capacity:    r.Capacity,
		CreatedAt:   r.CreatedAt,
	}
	if r.BusinessPrice != nil {
		bp := r.BusinessPrice.Decimal
		f.BusinessPrice = &bp
	}
	return f
}

// timestampLayout is fixed width so that string comparison in key conditions
// matches time order. RFC3339Nano drops trailing zeros and does not.
const timestampLayout = "2006-01-02T15:04:05.000000000Z"

// timestamp stores a time as a fixed-width UTC string.
type timestamp struct {
	time.Time
}

func (t timestamp) MarshalDynamoDBAttributeValue() (types.AttributeValue, error) {
	return &types.AttributeValueMemberS{Value: t.UTC().Format(timestampLayout)}, nil
}

func (t *timestamp) UnmarshalDynamoDBAttributeValue(av types.AttributeValue) error {
	s, ok := av.(*types.AttributeValueMemberS)
	if !ok {
		return fmt.Errorf("unexpected attribute type %T for timestamp", av)
	}
	// RFC3339Nano parsing also accepts the fixed-width layout.
	parsed, err := time.Parse(time.RFC3339Nano, s.Value)
	if err != nil {
		return fmt.Errorf("failed to parse timestamp %q: %w", s.Value, err)
	}
	t.Time = parsed.UTC()
	return nil
}

// purchaseRecord is the item layout of the purchases table. created_at is the
// range key of the pending index.
type purchaseRecord struct {
	Id            string                `dynamodbav:"id"`
	FlightId      string                `dynamodbav:"flight_id"`
	AccountId     string                `dynamodbav:"account_id"`
	PassengerName string                `dynamodbav:"passenger_name,omitempty"`
	PaymentMethod models.PaymentMethod  `dynamodbav:"payment_method"`
	MilesDeducted int64                 `dynamodbav:"miles_deducted"`
	MilesEarned   int64                 `dynamodbav:"miles_earned"`
	Status        models.PurchaseStatus `dynamodbav:"status"`
	CreatedAt     timestamp             `dynamodbav:"created_at"`
	SettledAt     *timestamp            `dynamodbav:"settled_at,omitempty"`
}

func toPurchaseRecord(p *models.Purchase) purchaseRecord {
	r := purchaseRecord{
		Id:            p.Id,
		FlightId:      p.FlightId,
		AccountId:     p.AccountId,
		PassengerName: p.PassengerName,
		PaymentMethod: p.PaymentMethod,
		MilesDeducted: p.MilesDeducted,
		MilesEarned:   p.MilesEarned,
		Status:        p.Status,
		CreatedAt:     timestamp{p.CreatedAt},
	}
	if p.SettledAt != nil {
		r.SettledAt = &timestamp{*p.SettledAt}
	}
	return r
}

func (r purchaseRecord) toModel() models.Purchase {
	p := models.Purchase{
		Id:            r.Id,
		FlightId:      r.FlightId,
		AccountId:     r.AccountId,
		PassengerName: r.PassengerName,
		PaymentMethod: r.PaymentMethod,
		MilesDeducted: r.MilesDeducted,
		MilesEarned:   r.MilesEarned,
		Status:        r.Status,
		CreatedAt:     r.CreatedAt.Time,
	}
	if r.SettledAt != nil {
		settled := r.SettledAt.Time
		p.SettledAt = &settled
	}
	return p
}
