package sqlite

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/bobmcallan/corebank/internal/models"
)

type customerStore struct {
	s *Store
}

const customerColumns = `id, customer_number, first_name, last_name, email, mobile, national_id,
	COALESCE(date_of_birth, ''), address_line1, COALESCE(address_line2, ''), city, state, postal_code,
	status, other_info, created_at, modified_at`

func (c *customerStore) scan(row interface{ Scan(...any) error }) (*models.Customer, error) {
	var cust models.Customer
	var otherInfo, createdAt, modifiedAt string
	err := row.Scan(&cust.ID, &cust.CustomerNumber, &cust.FirstName, &cust.LastName,
		&cust.Email, &cust.Mobile, &cust.NationalID, &cust.DateOfBirth,
		&cust.AddressLine1, &cust.AddressLine2, &cust.City, &cust.State, &cust.PostalCode,
		&cust.Status, &otherInfo, &createdAt, &modifiedAt)
	if err != nil {
		return nil, err
	}
	if otherInfo != "" {
		if err := json.Unmarshal([]byte(otherInfo), &cust.OtherInfo); err != nil {
			return nil, fmt.Errorf("failed to decode customer %d info: %w", cust.ID, err)
		}
	}
	cust.CreatedAt = parseTime(createdAt)
	cust.ModifiedAt = parseTime(modifiedAt)
	return &cust, nil
}

func encodeCustomerInfo(info models.CustomerInfo) (string, error) {
	raw, err := json.Marshal(info)
	if err != nil {
		return "", fmt.Errorf("failed to encode customer info: %w", err)
	}
	return string(raw), nil
}

func (c *customerStore) Create(ctx context.Context, cust *models.Customer) error {
	info, err := encodeCustomerInfo(cust.OtherInfo)
	if err != nil {
		return err
	}
	res, err := c.s.q.ExecContext(ctx, `
		INSERT INTO customers (customer_number, first_name, last_name, email, mobile, national_id,
			date_of_birth, address_line1, address_line2, city, state, postal_code,
			status, other_info, created_at, modified_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		cust.CustomerNumber, cust.FirstName, cust.LastName, cust.Email, cust.Mobile,
		cust.NationalID, nullStr(cust.DateOfBirth), cust.AddressLine1, nullStr(cust.AddressLine2),
		cust.City, cust.State, cust.PostalCode, string(cust.Status), info,
		fmtTime(cust.CreatedAt), fmtTime(cust.ModifiedAt))
	if err != nil {
		return mapErr(err, "customer", cust.CustomerNumber)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return fmt.Errorf("failed to read customer id: %w", err)
	}
	cust.ID = id
	return nil
}

func (c *customerStore) GetByID(ctx context.Context, id int64) (*models.Customer, error) {
	row := c.s.q.QueryRowContext(ctx,
		`SELECT `+customerColumns+` FROM customers WHERE id = ?`, id)
	cust, err := c.scan(row)
	if err != nil {
		return nil, mapErr(err, "customer", fmt.Sprintf("%d", id))
	}
	return cust, nil
}

func (c *customerStore) GetByNumber(ctx context.Context, customerNumber string) (*models.Customer, error) {
	row := c.s.q.QueryRowContext(ctx,
		`SELECT `+customerColumns+` FROM customers WHERE customer_number = ?`, customerNumber)
	cust, err := c.scan(row)
	if err != nil {
		return nil, mapErr(err, "customer", customerNumber)
	}
	return cust, nil
}

func (c *customerStore) Update(ctx context.Context, cust *models.Customer) error {
	info, err := encodeCustomerInfo(cust.OtherInfo)
	if err != nil {
		return err
	}
	res, err := c.s.q.ExecContext(ctx, `
		UPDATE customers SET first_name = ?, last_name = ?, email = ?, mobile = ?, national_id = ?,
			date_of_birth = ?, address_line1 = ?, address_line2 = ?, city = ?, state = ?,
			postal_code = ?, status = ?, other_info = ?, modified_at = ?
		WHERE id = ?`,
		cust.FirstName, cust.LastName, cust.Email, cust.Mobile, cust.NationalID,
		nullStr(cust.DateOfBirth), cust.AddressLine1, nullStr(cust.AddressLine2),
		cust.City, cust.State, cust.PostalCode, string(cust.Status), info,
		fmtTime(nowUTC()), cust.ID)
	if err != nil {
		return fmt.Errorf("failed to update customer %d: %w", cust.ID, err)
	}
	return requireRow(res, "customer", cust.ID)
}
