package storage

import (
	"context"

	"github.com/jackc/pgx/v5"
)

// ResolveCustomer finds or creates the customer identified by the
// (phone, flat number) natural key and returns its id. The insert races
// safely: ON CONFLICT DO NOTHING against the unique constraint means
// concurrent calls with the same key converge on one row, and attributes of
// an existing customer are never overwritten.
func (r *WalkRepository) ResolveCustomer(ctx context.Context, tx pgx.Tx, name, phone string, flatNumber int) (int64, error) {
	_, err := tx.Exec(ctx, `
		INSERT INTO customers (name, phone, flat_number)
		VALUES ($1, $2, $3)
		ON CONFLICT (phone, flat_number) DO NOTHING
	`, name, phone, flatNumber)
	if err != nil {
		return 0, err
	}

	var id int64
	err = tx.QueryRow(ctx, `
		SELECT customer_id FROM customers WHERE phone = $1 AND flat_number = $2
	`, phone, flatNumber).Scan(&id)
	if err != nil {
		return 0, err
	}
	return id, nil
}

// ResolveDog finds or creates a dog by name within one customer. Dog names
// are unique per owner, not globally, so two customers can both walk a Rex.
func (r *WalkRepository) ResolveDog(ctx context.Context, tx pgx.Tx, customerID int64, name, description string) (int64, error) {
	_, err := tx.Exec(ctx, `
		INSERT INTO dogs (customer_id, dog_name, dog_description)
		VALUES ($1, $2, $3)
		ON CONFLICT (customer_id, dog_name) DO NOTHING
	`, customerID, name, description)
	if err != nil {
		return 0, err
	}

	var id int64
	err = tx.QueryRow(ctx, `
		SELECT dog_id FROM dogs WHERE customer_id = $1 AND dog_name = $2
	`, customerID, name).Scan(&id)
	if err != nil {
		return 0, err
	}
	return id, nil
}
