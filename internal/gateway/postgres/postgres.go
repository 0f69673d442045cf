// Package postgres implements the persistence gateway and catalog reads on
// PostgreSQL via pgx. Queries run as independent calls, matching the
// non-transactional contract of gateway.Gateway.
package postgres

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgtype"

	"github.com/sabor-pos/api/internal/catalog"
	"github.com/sabor-pos/api/internal/gateway"
)

// DB is the subset of *pgxpool.Pool the store uses.
type DB interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

// Store implements gateway.Gateway plus order creation and catalog reads.
type Store struct {
	db DB
}

// NewStore creates a Store on the given connection pool.
func NewStore(db DB) *Store {
	return &Store{db: db}
}

// --- Orders ---

// NextOrderNumber returns the next display number for today, e.g. ORD-012.
// The sequence restarts daily; concurrent callers may race and collide on
// the unique index, in which case the caller retries.
func (s *Store) NextOrderNumber(ctx context.Context) (string, int32, error) {
	var seq int32
	err := s.db.QueryRow(ctx,
		`SELECT COALESCE(MAX(number_seq), 0) + 1 FROM orders WHERE created_at::date = CURRENT_DATE`,
	).Scan(&seq)
	if err != nil {
		return "", 0, fmt.Errorf("next order number: %w", err)
	}
	return fmt.Sprintf("ORD-%03d", seq), seq, nil
}

// CreateOrder inserts the order row and its initial items. Calls are
// sequential, not transactional; a failure partway leaves the created rows
// in place.
func (s *Store) CreateOrder(ctx context.Context, params gateway.CreateOrderParams) (*gateway.Order, error) {
	o := &gateway.Order{
		Number:          params.Number,
		NumberSeq:       params.NumberSeq,
		Type:            params.Type,
		Status:          params.Status,
		TableNumber:     params.TableNumber,
		CustomerName:    params.CustomerName,
		CustomerPhone:   params.CustomerPhone,
		DeliveryAddress: params.DeliveryAddress,
		PaymentMethod:   params.PaymentMethod,
		Notes:           params.Notes,
		DeliveryFee:     params.DeliveryFee,
		Total:           params.Total,
	}

	err := s.db.QueryRow(ctx,
		`INSERT INTO orders (number, number_seq, order_type, status, table_number, customer_name,
			customer_phone, delivery_address, payment_method, notes, delivery_fee, total)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)
		 RETURNING id, created_at, updated_at`,
		params.Number, params.NumberSeq, params.Type, params.Status,
		params.TableNumber, params.CustomerName, params.CustomerPhone,
		params.DeliveryAddress, params.PaymentMethod, params.Notes,
		decimalToNumeric(params.DeliveryFee), decimalToNumeric(params.Total),
	).Scan(&o.ID, &o.CreatedAt, &o.UpdatedAt)
	if err != nil {
		return nil, fmt.Errorf("insert order: %w", err)
	}

	items, err := s.CreateOrderItems(ctx, o.ID, params.Items)
	if err != nil {
		return nil, err
	}
	var inserts []gateway.OrderItemExtraInsert
	for i, draft := range params.Items {
		for _, ex := range draft.Extras {
			inserts = append(inserts, gateway.OrderItemExtraInsert{
				OrderItemID: items[i].ID,
				ExtraID:     ex.ExtraID,
				Name:        ex.Name,
				UnitPrice:   ex.UnitPrice,
				Quantity:    ex.Quantity,
			})
		}
	}
	if len(inserts) > 0 {
		if err := s.CreateOrderItemExtras(ctx, inserts); err != nil {
			return nil, err
		}
	}

	return s.FetchOrderWithItems(ctx, o.ID)
}

// CreateOrderItems inserts the drafts and echoes each row back with its
// assigned identity. Extras inside the drafts are not inserted here; the
// caller binds them to the echoed ids.
func (s *Store) CreateOrderItems(ctx context.Context, orderID uuid.UUID, items []gateway.OrderItemDraft) ([]gateway.OrderItem, error) {
	created := make([]gateway.OrderItem, 0, len(items))
	for i, it := range items {
		row := gateway.OrderItem{
			OrderID:     orderID,
			ProductID:   it.ProductID,
			ProductName: it.ProductName,
			UnitPrice:   it.UnitPrice,
			Quantity:    it.Quantity,
			Subtotal:    it.Subtotal,
			VarietyID:   it.VarietyID,
			VarietyName: it.VarietyName,
			Weight:      it.Weight,
			PricePerKg:  it.PricePerKg,
			Notes:       it.Notes,
		}
		err := s.db.QueryRow(ctx,
			`INSERT INTO order_items (order_id, product_id, product_name, unit_price, quantity,
				subtotal, variety_id, variety_name, weight_kg, price_per_kg, notes)
			 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
			 RETURNING id`,
			orderID, it.ProductID, it.ProductName, decimalToNumeric(it.UnitPrice), it.Quantity,
			decimalToNumeric(it.Subtotal), it.VarietyID, it.VarietyName,
			decimalPtrToNumeric(it.Weight), decimalPtrToNumeric(it.PricePerKg), it.Notes,
		).Scan(&row.ID)
		if err != nil {
			return nil, fmt.Errorf("insert order item %d: %w", i, err)
		}
		created = append(created, row)
	}
	return created, nil
}

// CreateOrderItemExtras inserts add-on rows bound to persisted items.
func (s *Store) CreateOrderItemExtras(ctx context.Context, extras []gateway.OrderItemExtraInsert) error {
	for i, ex := range extras {
		_, err := s.db.Exec(ctx,
			`INSERT INTO order_item_extras (order_item_id, extra_id, name, unit_price, quantity)
			 VALUES ($1, $2, $3, $4, $5)`,
			ex.OrderItemID, ex.ExtraID, ex.Name, decimalToNumeric(ex.UnitPrice), ex.Quantity,
		)
		if err != nil {
			return fmt.Errorf("insert order item extra %d: %w", i, err)
		}
	}
	return nil
}

// DeleteOrderItemExtras removes every add-on row under the given items.
// Items without extras are a no-op, not an error.
func (s *Store) DeleteOrderItemExtras(ctx context.Context, orderItemIDs []uuid.UUID) error {
	if len(orderItemIDs) == 0 {
		return nil
	}
	_, err := s.db.Exec(ctx,
		`DELETE FROM order_item_extras WHERE order_item_id = ANY($1)`, orderItemIDs)
	if err != nil {
		return fmt.Errorf("delete order item extras: %w", err)
	}
	return nil
}

// DeleteOrderItems removes the given line items.
func (s *Store) DeleteOrderItems(ctx context.Context, ids []uuid.UUID) error {
	if len(ids) == 0 {
		return nil
	}
	_, err := s.db.Exec(ctx, `DELETE FROM order_items WHERE id = ANY($1)`, ids)
	if err != nil {
		return fmt.Errorf("delete order items: %w", err)
	}
	return nil
}

// UpdateOrderItem rewrites a line's quantity, name, and subtotal. When
// fields.Snapshot is set the product snapshot columns are rewritten too.
func (s *Store) UpdateOrderItem(ctx context.Context, id uuid.UUID, fields gateway.OrderItemUpdate) error {
	var tag pgconn.CommandTag
	var err error
	if snap := fields.Snapshot; snap != nil {
		tag, err = s.db.Exec(ctx,
			`UPDATE order_items
			 SET quantity = $1, product_name = $2, subtotal = $3,
				product_id = $4, unit_price = $5, variety_id = $6, variety_name = $7,
				weight_kg = $8, price_per_kg = $9, notes = $10
			 WHERE id = $11`,
			fields.Quantity, snap.ProductName, decimalToNumeric(fields.Subtotal),
			snap.ProductID, decimalToNumeric(snap.UnitPrice), snap.VarietyID, snap.VarietyName,
			decimalPtrToNumeric(snap.Weight), decimalPtrToNumeric(snap.PricePerKg), snap.Notes,
			id,
		)
	} else {
		tag, err = s.db.Exec(ctx,
			`UPDATE order_items SET quantity = $1, product_name = $2, subtotal = $3 WHERE id = $4`,
			fields.Quantity, fields.ProductName, decimalToNumeric(fields.Subtotal), id,
		)
	}
	if err != nil {
		return fmt.Errorf("update order item: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return gateway.ErrNotFound
	}
	return nil
}

// UpdateOrder writes the non-nil order-level fields.
func (s *Store) UpdateOrder(ctx context.Context, orderID uuid.UUID, fields gateway.OrderUpdate) error {
	sets := []string{"updated_at = now()"}
	var args []any
	add := func(col string, v any) {
		args = append(args, v)
		sets = append(sets, fmt.Sprintf("%s = $%d", col, len(args)))
	}

	if fields.Status != nil {
		add("status", *fields.Status)
	}
	if fields.Type != nil {
		add("order_type", *fields.Type)
	}
	if fields.TableNumber != nil {
		add("table_number", *fields.TableNumber)
	}
	if fields.CustomerName != nil {
		add("customer_name", *fields.CustomerName)
	}
	if fields.CustomerPhone != nil {
		add("customer_phone", *fields.CustomerPhone)
	}
	if fields.DeliveryAddress != nil {
		add("delivery_address", *fields.DeliveryAddress)
	}
	if fields.PaymentMethod != nil {
		add("payment_method", *fields.PaymentMethod)
	}
	if fields.Notes != nil {
		add("notes", *fields.Notes)
	}
	if fields.DeliveryFee != nil {
		add("delivery_fee", decimalToNumeric(*fields.DeliveryFee))
	}
	if fields.Total != nil {
		add("total", decimalToNumeric(*fields.Total))
	}

	args = append(args, orderID)
	query := fmt.Sprintf("UPDATE orders SET %s WHERE id = $%d", strings.Join(sets, ", "), len(args))
	tag, err := s.db.Exec(ctx, query, args...)
	if err != nil {
		return fmt.Errorf("update order: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return gateway.ErrNotFound
	}
	return nil
}

// FetchOrderWithItems loads an order with its items and their extras.
func (s *Store) FetchOrderWithItems(ctx context.Context, orderID uuid.UUID) (*gateway.Order, error) {
	o := &gateway.Order{}
	var fee, total pgtype.Numeric
	err := s.db.QueryRow(ctx,
		`SELECT id, number, number_seq, order_type, status, table_number, customer_name,
			customer_phone, delivery_address, payment_method, notes, delivery_fee, total,
			created_at, updated_at
		 FROM orders WHERE id = $1`, orderID,
	).Scan(&o.ID, &o.Number, &o.NumberSeq, &o.Type, &o.Status, &o.TableNumber, &o.CustomerName,
		&o.CustomerPhone, &o.DeliveryAddress, &o.PaymentMethod, &o.Notes, &fee, &total,
		&o.CreatedAt, &o.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, gateway.ErrNotFound
		}
		return nil, fmt.Errorf("fetch order: %w", err)
	}
	o.DeliveryFee = numericToDecimal(fee)
	o.Total = numericToDecimal(total)

	items, err := s.fetchItems(ctx, orderID)
	if err != nil {
		return nil, err
	}
	o.Items = items
	return o, nil
}

func (s *Store) fetchItems(ctx context.Context, orderID uuid.UUID) ([]gateway.OrderItem, error) {
	rows, err := s.db.Query(ctx,
		`SELECT id, order_id, product_id, product_name, unit_price, quantity, subtotal,
			variety_id, variety_name, weight_kg, price_per_kg, notes
		 FROM order_items WHERE order_id = $1 ORDER BY created_at, id`, orderID)
	if err != nil {
		return nil, fmt.Errorf("fetch order items: %w", err)
	}
	defer rows.Close()

	var items []gateway.OrderItem
	var itemIDs []uuid.UUID
	for rows.Next() {
		var it gateway.OrderItem
		var unitPrice, subtotal, weight, pricePerKg pgtype.Numeric
		if err := rows.Scan(&it.ID, &it.OrderID, &it.ProductID, &it.ProductName, &unitPrice,
			&it.Quantity, &subtotal, &it.VarietyID, &it.VarietyName, &weight, &pricePerKg,
			&it.Notes); err != nil {
			return nil, fmt.Errorf("scan order item: %w", err)
		}
		it.UnitPrice = numericToDecimal(unitPrice)
		it.Subtotal = numericToDecimal(subtotal)
		it.Weight = numericToDecimalPtr(weight)
		it.PricePerKg = numericToDecimalPtr(pricePerKg)
		items = append(items, it)
		itemIDs = append(itemIDs, it.ID)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("fetch order items: %w", err)
	}
	if len(items) == 0 {
		return items, nil
	}

	extraRows, err := s.db.Query(ctx,
		`SELECT id, order_item_id, extra_id, name, unit_price, quantity
		 FROM order_item_extras WHERE order_item_id = ANY($1) ORDER BY id`, itemIDs)
	if err != nil {
		return nil, fmt.Errorf("fetch order item extras: %w", err)
	}
	defer extraRows.Close()

	byItem := make(map[uuid.UUID]int, len(items))
	for i, it := range items {
		byItem[it.ID] = i
	}
	for extraRows.Next() {
		var ex gateway.OrderItemExtra
		var unitPrice pgtype.Numeric
		if err := extraRows.Scan(&ex.ID, &ex.OrderItemID, &ex.ExtraID, &ex.Name, &unitPrice, &ex.Quantity); err != nil {
			return nil, fmt.Errorf("scan order item extra: %w", err)
		}
		ex.UnitPrice = numericToDecimal(unitPrice)
		if i, ok := byItem[ex.OrderItemID]; ok {
			items[i].Extras = append(items[i].Extras, ex)
		}
	}
	if err := extraRows.Err(); err != nil {
		return nil, fmt.Errorf("fetch order item extras: %w", err)
	}
	return items, nil
}

// ListOrders returns orders newest first, optionally filtered by status.
func (s *Store) ListOrders(ctx context.Context, status string) ([]*gateway.Order, error) {
	query := `SELECT id, number, number_seq, order_type, status, table_number, customer_name,
		customer_phone, delivery_address, payment_method, notes, delivery_fee, total,
		created_at, updated_at
	 FROM orders`
	var args []any
	if status != "" {
		query += ` WHERE status = $1`
		args = append(args, status)
	}
	query += ` ORDER BY created_at DESC`

	rows, err := s.db.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list orders: %w", err)
	}
	defer rows.Close()

	var orders []*gateway.Order
	for rows.Next() {
		o := &gateway.Order{}
		var fee, total pgtype.Numeric
		if err := rows.Scan(&o.ID, &o.Number, &o.NumberSeq, &o.Type, &o.Status, &o.TableNumber,
			&o.CustomerName, &o.CustomerPhone, &o.DeliveryAddress, &o.PaymentMethod, &o.Notes,
			&fee, &total, &o.CreatedAt, &o.UpdatedAt); err != nil {
			return nil, fmt.Errorf("scan order: %w", err)
		}
		o.DeliveryFee = numericToDecimal(fee)
		o.Total = numericToDecimal(total)
		orders = append(orders, o)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("list orders: %w", err)
	}
	return orders, nil
}

// --- Catalog ---

// GetProduct loads one active product with its varieties and extras.
func (s *Store) GetProduct(ctx context.Context, id uuid.UUID) (*catalog.Product, error) {
	p := &catalog.Product{}
	var price pgtype.Numeric
	err := s.db.QueryRow(ctx,
		`SELECT id, name, price, sold_by_weight, max_extras FROM products
		 WHERE id = $1 AND is_active`, id,
	).Scan(&p.ID, &p.Name, &price, &p.SoldByWeight, &p.MaxExtras)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, gateway.ErrNotFound
		}
		return nil, fmt.Errorf("get product: %w", err)
	}
	p.Price = numericToDecimal(price)

	products := []*catalog.Product{p}
	if err := s.attachOptions(ctx, products); err != nil {
		return nil, err
	}
	return p, nil
}

// ListProducts returns all active products with varieties and extras.
func (s *Store) ListProducts(ctx context.Context) ([]*catalog.Product, error) {
	rows, err := s.db.Query(ctx,
		`SELECT id, name, price, sold_by_weight, max_extras FROM products
		 WHERE is_active ORDER BY name`)
	if err != nil {
		return nil, fmt.Errorf("list products: %w", err)
	}
	defer rows.Close()

	var products []*catalog.Product
	for rows.Next() {
		p := &catalog.Product{}
		var price pgtype.Numeric
		if err := rows.Scan(&p.ID, &p.Name, &price, &p.SoldByWeight, &p.MaxExtras); err != nil {
			return nil, fmt.Errorf("scan product: %w", err)
		}
		p.Price = numericToDecimal(price)
		products = append(products, p)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("list products: %w", err)
	}
	if err := s.attachOptions(ctx, products); err != nil {
		return nil, err
	}
	return products, nil
}

func (s *Store) attachOptions(ctx context.Context, products []*catalog.Product) error {
	if len(products) == 0 {
		return nil
	}
	ids := make([]uuid.UUID, len(products))
	byID := make(map[uuid.UUID]*catalog.Product, len(products))
	for i, p := range products {
		ids[i] = p.ID
		byID[p.ID] = p
	}

	rows, err := s.db.Query(ctx,
		`SELECT id, product_id, name, price, is_active FROM product_varieties
		 WHERE product_id = ANY($1) AND is_active ORDER BY name`, ids)
	if err != nil {
		return fmt.Errorf("list varieties: %w", err)
	}
	defer rows.Close()
	for rows.Next() {
		var v catalog.Variety
		var price pgtype.Numeric
		if err := rows.Scan(&v.ID, &v.ProductID, &v.Name, &price, &v.Active); err != nil {
			return fmt.Errorf("scan variety: %w", err)
		}
		v.Price = numericToDecimal(price)
		if p, ok := byID[v.ProductID]; ok {
			p.Varieties = append(p.Varieties, v)
		}
	}
	if err := rows.Err(); err != nil {
		return fmt.Errorf("list varieties: %w", err)
	}

	extraRows, err := s.db.Query(ctx,
		`SELECT id, product_id, name, price, max_quantity, is_active FROM product_extras
		 WHERE product_id = ANY($1) AND is_active ORDER BY name`, ids)
	if err != nil {
		return fmt.Errorf("list extras: %w", err)
	}
	defer extraRows.Close()
	for extraRows.Next() {
		var e catalog.Extra
		var price pgtype.Numeric
		if err := extraRows.Scan(&e.ID, &e.ProductID, &e.Name, &price, &e.MaxQuantity, &e.Active); err != nil {
			return fmt.Errorf("scan extra: %w", err)
		}
		e.Price = numericToDecimal(price)
		if p, ok := byID[e.ProductID]; ok {
			p.Extras = append(p.Extras, e)
		}
	}
	if err := extraRows.Err(); err != nil {
		return fmt.Errorf("list extras: %w", err)
	}
	return nil
}

var _ gateway.Gateway = (*Store)(nil)
