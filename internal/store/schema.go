package store

import "context"

// schema is applied at service startup. Orders are never hard-deleted;
// the tables only grow and feed analytics.
const schema = `
CREATE TABLE IF NOT EXISTS orders (
    id          UUID PRIMARY KEY,
    public_id   TEXT NOT NULL UNIQUE,
    customer_name TEXT NOT NULL,
    phone       TEXT NOT NULL,
    email       TEXT NOT NULL,
    type        TEXT NOT NULL,
    address     TEXT NOT NULL DEFAULT '',
    notes       TEXT NOT NULL DEFAULT '',
    subtotal    NUMERIC(10,2) NOT NULL,
    tax         NUMERIC(10,2) NOT NULL,
    total       NUMERIC(10,2) NOT NULL,
    status      TEXT NOT NULL DEFAULT 'pending',
    created_at  TIMESTAMPTZ NOT NULL DEFAULT now(),
    updated_at  TIMESTAMPTZ NOT NULL DEFAULT now()
);

CREATE INDEX IF NOT EXISTS orders_phone_idx ON orders (phone);
CREATE INDEX IF NOT EXISTS orders_created_at_idx ON orders (created_at DESC);
CREATE INDEX IF NOT EXISTS orders_status_idx ON orders (status);

CREATE TABLE IF NOT EXISTS order_items (
    id           BIGSERIAL PRIMARY KEY,
    order_id     UUID NOT NULL REFERENCES orders (id),
    menu_item_id TEXT NOT NULL DEFAULT '',
    name         TEXT NOT NULL,
    price        NUMERIC(10,2) NOT NULL,
    quantity     INT NOT NULL
);

CREATE INDEX IF NOT EXISTS order_items_order_idx ON order_items (order_id);

CREATE TABLE IF NOT EXISTS order_status_log (
    id         BIGSERIAL PRIMARY KEY,
    order_id   UUID NOT NULL REFERENCES orders (id),
    status     TEXT NOT NULL,
    changed_by TEXT NOT NULL DEFAULT '',
    changed_at TIMESTAMPTZ NOT NULL DEFAULT now()
);

CREATE INDEX IF NOT EXISTS order_status_log_order_idx ON order_status_log (order_id);

CREATE TABLE IF NOT EXISTS menu_items (
    id          TEXT PRIMARY KEY,
    name        TEXT NOT NULL,
    description TEXT NOT NULL DEFAULT '',
    price       NUMERIC(10,2) NOT NULL,
    category    TEXT NOT NULL,
    image       TEXT NOT NULL DEFAULT '',
    is_popular  BOOLEAN NOT NULL DEFAULT FALSE
);
`

// menuSeed gives checkout something to snapshot on a fresh database.
// Menu management itself is owned by a separate collaborator.
const menuSeed = `
INSERT INTO menu_items (id, name, description, price, category, is_popular) VALUES
    ('1', 'Mantu', 'Steamed dumplings filled with spiced ground beef and onions, topped with split pea tomato sauce and garlic yogurt.', 12.95, 'Appetizers', TRUE),
    ('2', 'Bolani', 'Pan-fried flatbread stuffed with leeks and potatoes, served with yogurt dipping sauce.', 9.95, 'Appetizers', FALSE),
    ('3', 'Kabuli Palow', 'Tender lamb shank buried under seasoned rice topped with caramelized carrots and raisins.', 24.95, 'Entrees', TRUE),
    ('4', 'Lamb Chops', 'Succulent lamb chops marinated in signature spices and charbroiled.', 28.95, 'Entrees', TRUE),
    ('5', 'Borani Banjan', 'Sauteed eggplant topped with a zesty tomato sauce and garlic yogurt.', 18.95, 'Vegetarian', FALSE),
    ('6', 'Firnee', 'Milk pudding flavored with rosewater and cardamom, garnished with pistachios.', 7.95, 'Desserts', FALSE),
    ('7', 'Afghan Dogh', 'Homemade yogurt drink mixed with diced cucumbers and dried mint.', 4.50, 'Beverages', FALSE),
    ('8', 'Green Tea with Cardamom', 'Traditional Afghan tea infused with aromatic cardamom pods.', 3.95, 'Beverages', FALSE)
ON CONFLICT (id) DO NOTHING;
`

// Migrate creates the schema and seeds the menu catalog.
func (s *Store) Migrate(ctx context.Context) error {
	if _, err := s.pool.Exec(ctx, schema); err != nil {
		return wrapErr("apply schema", err)
	}
	if _, err := s.pool.Exec(ctx, menuSeed); err != nil {
		return wrapErr("seed menu", err)
	}
	s.log.Action("schema_applied").Info("Database schema is up to date")
	return nil
}
