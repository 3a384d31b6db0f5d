package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	_ "modernc.org/sqlite"

	"tasnim.dev/vpc-topology/internal/topology"
)

// Store writes topology snapshots to a SQLite file. A file holds one
// snapshot; saving replaces whatever was there.
type Store struct {
	db *sql.DB
}

// Open opens or creates the database at path and applies the schema.
func Open(path string) (*Store, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	// one connection keeps :memory: databases and the pragma below stable
	db.SetMaxOpenConns(1)

	s := &Store{db: db}
	if err := s.migrate(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to migrate database: %w", err)
	}
	return s, nil
}

func (s *Store) Close() error {
	return s.db.Close()
}

func (s *Store) migrate() error {
	schema := `
	PRAGMA foreign_keys = ON;

	CREATE TABLE IF NOT EXISTS vpc (
		id TEXT PRIMARY KEY,
		cidr TEXT NOT NULL,
		name TEXT,
		main_route_table_id TEXT
	);

	CREATE TABLE IF NOT EXISTS subnets (
		id TEXT PRIMARY KEY,
		name TEXT,
		cidr TEXT NOT NULL,
		availability_zone TEXT NOT NULL,
		type TEXT NOT NULL,
		type_inferred INTEGER NOT NULL DEFAULT 0
	);

	CREATE TABLE IF NOT EXISTS route_tables (
		id TEXT PRIMARY KEY,
		name TEXT,
		is_main INTEGER NOT NULL DEFAULT 0
	);

	CREATE TABLE IF NOT EXISTS routes (
		route_table_id TEXT NOT NULL,
		position INTEGER NOT NULL,
		destination TEXT NOT NULL,
		target_type TEXT,
		target_id TEXT,
		state TEXT,
		is_default INTEGER NOT NULL DEFAULT 0,
		PRIMARY KEY (route_table_id, position),
		FOREIGN KEY (route_table_id) REFERENCES route_tables(id) ON DELETE CASCADE
	);

	CREATE TABLE IF NOT EXISTS associations (
		subnet_id TEXT PRIMARY KEY,
		route_table_id TEXT NOT NULL,
		FOREIGN KEY (route_table_id) REFERENCES route_tables(id) ON DELETE CASCADE
	);

	CREATE TABLE IF NOT EXISTS network_interfaces (
		id TEXT PRIMARY KEY,
		subnet_id TEXT,
		attachment_type TEXT,
		description TEXT,
		private_ip TEXT,
		resource_type TEXT,
		resource_name TEXT,
		resource_id TEXT
	);

	CREATE TABLE IF NOT EXISTS layout_positions (
		subnet_id TEXT PRIMARY KEY,
		x REAL NOT NULL,
		y REAL NOT NULL,
		type TEXT NOT NULL
	);

	CREATE INDEX IF NOT EXISTS idx_associations_route_table ON associations(route_table_id);
	`

	_, err := s.db.Exec(schema)
	return err
}

var snapshotTables = []string{
	"layout_positions", "network_interfaces", "associations", "routes", "route_tables", "subnets", "vpc",
}

// SaveSnapshot replaces the stored snapshot in a single transaction.
func (s *Store) SaveSnapshot(ctx context.Context, snap *topology.Snapshot) (err error) {
	if snap == nil {
		return errors.New("nil snapshot")
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback()
		}
	}()

	for _, table := range snapshotTables {
		if _, err = tx.ExecContext(ctx, "DELETE FROM "+table); err != nil {
			return fmt.Errorf("failed to clear %s: %w", table, err)
		}
	}

	vpc := snap.Network.VPC
	if _, err = tx.ExecContext(ctx, `INSERT INTO vpc (id, cidr, name, main_route_table_id) VALUES (?, ?, ?, ?)`,
		vpc.ID, vpc.CIDR, nullString(vpc.Name), nullString(snap.MainRouteTable())); err != nil {
		return fmt.Errorf("failed to insert vpc: %w", err)
	}

	for _, sub := range snap.Network.Subnets() {
		if _, err = tx.ExecContext(ctx, `
			INSERT OR REPLACE INTO subnets (id, name, cidr, availability_zone, type, type_inferred)
			VALUES (?, ?, ?, ?, ?, ?)
		`, sub.ID, nullString(sub.Name), sub.CIDR, sub.AvailabilityZone, string(sub.Type), boolInt(sub.TypeInferred)); err != nil {
			return fmt.Errorf("failed to insert subnet %s: %w", sub.ID, err)
		}
	}

	for _, rt := range snap.RouteTables {
		if _, err = tx.ExecContext(ctx, `INSERT OR IGNORE INTO route_tables (id, name, is_main) VALUES (?, ?, ?)`,
			rt.ID, nullString(rt.Name), boolInt(rt.IsMain)); err != nil {
			return fmt.Errorf("failed to insert route table %s: %w", rt.ID, err)
		}
		for i, r := range rt.Routes {
			if _, err = tx.ExecContext(ctx, `
				INSERT OR REPLACE INTO routes (route_table_id, position, destination, target_type, target_id, state, is_default)
				VALUES (?, ?, ?, ?, ?, ?, ?)
			`, rt.ID, i, r.Destination, nullString(string(r.TargetType)), nullString(r.TargetID), nullString(r.State), boolInt(r.IsDefaultRoute)); err != nil {
				return fmt.Errorf("failed to insert route %s/%d: %w", rt.ID, i, err)
			}
		}
	}

	for subnetID, rtID := range snap.Index.SubnetToRouteTable {
		if _, err = tx.ExecContext(ctx, `INSERT INTO associations (subnet_id, route_table_id) VALUES (?, ?)`, subnetID, rtID); err != nil {
			return fmt.Errorf("failed to insert association %s: %w", subnetID, err)
		}
	}

	for _, eni := range snap.NetworkInterfaces {
		var resType, resName, resID sql.NullString
		if eni.Resource != nil {
			resType = nullString(eni.Resource.ResourceType)
			resName = nullString(eni.Resource.ResourceName)
			resID = nullString(eni.Resource.ResourceID)
		}
		if _, err = tx.ExecContext(ctx, `
			INSERT OR REPLACE INTO network_interfaces (id, subnet_id, attachment_type, description, private_ip, resource_type, resource_name, resource_id)
			VALUES (?, ?, ?, ?, ?, ?, ?, ?)
		`, eni.ID, nullString(eni.SubnetID), nullString(eni.AttachmentType), nullString(eni.Description), nullString(eni.PrivateIP),
			resType, resName, resID); err != nil {
			return fmt.Errorf("failed to insert network interface %s: %w", eni.ID, err)
		}
	}

	for subnetID, pos := range snap.Layout.Positions {
		if _, err = tx.ExecContext(ctx, `INSERT INTO layout_positions (subnet_id, x, y, type) VALUES (?, ?, ?, ?)`,
			subnetID, pos.X, pos.Y, string(pos.Type)); err != nil {
			return fmt.Errorf("failed to insert layout position %s: %w", subnetID, err)
		}
	}

	if err = tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit snapshot: %w", err)
	}
	return nil
}

// RouteTableForSubnet returns the explicitly associated route table, or
// sql.ErrNoRows when the subnet has none.
func (s *Store) RouteTableForSubnet(ctx context.Context, subnetID string) (string, error) {
	var rtID string
	err := s.db.QueryRowContext(ctx, `SELECT route_table_id FROM associations WHERE subnet_id = ?`, subnetID).Scan(&rtID)
	if err != nil {
		return "", err
	}
	return rtID, nil
}

// Routes returns the stored routes of a table in their original order.
func (s *Store) Routes(ctx context.Context, routeTableID string) ([]topology.Route, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT destination, target_type, target_id, state, is_default
		FROM routes
		WHERE route_table_id = ?
		ORDER BY position
	`, routeTableID)
	if err != nil {
		return nil, fmt.Errorf("failed to query routes: %w", err)
	}
	defer rows.Close()

	var routes []topology.Route
	for rows.Next() {
		var (
			r                        topology.Route
			targetType, targetID, st sql.NullString
			isDefault                int
		)
		if err := rows.Scan(&r.Destination, &targetType, &targetID, &st, &isDefault); err != nil {
			return nil, fmt.Errorf("failed to scan route: %w", err)
		}
		r.TargetType = topology.TargetType(targetType.String)
		r.TargetID = targetID.String
		r.State = st.String
		r.IsDefaultRoute = isDefault != 0
		routes = append(routes, r)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating routes: %w", err)
	}
	return routes, nil
}

// Count returns the number of rows in one of the snapshot tables.
func (s *Store) Count(ctx context.Context, table string) (int, error) {
	known := false
	for _, t := range snapshotTables {
		if t == table {
			known = true
			break
		}
	}
	if !known {
		return 0, fmt.Errorf("unknown table %q", table)
	}
	var n int
	if err := s.db.QueryRowContext(ctx, "SELECT COUNT(*) FROM "+table).Scan(&n); err != nil {
		return 0, err
	}
	return n, nil
}

func nullString(s string) sql.NullString {
	if s == "" {
		return sql.NullString{}
	}
	return sql.NullString{String: s, Valid: true}
}

func boolInt(b bool) int {
	if b {
		return 1
	}
	return 0
}
