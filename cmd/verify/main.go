// Command verify runs post-ingestion integrity checks against the store:
// table row counts, natural-key and slug uniqueness, referential integrity
// between dams, counties, and states, and denormalized count consistency.
// It prints a human-readable report and exits non-zero when any check fails.
//
// Usage:
//
//	DATABASE_URL=postgres://... go run ./cmd/verify
package main

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
)

// phase tracks pass/fail for one verification phase.
type phase struct {
	name   string
	errors []string
}

func (p *phase) errorf(format string, args ...any) {
	p.errors = append(p.errors, fmt.Sprintf(format, args...))
}

func (p *phase) passed() bool { return len(p.errors) == 0 }

func (p *phase) report() {
	if p.passed() {
		fmt.Printf("PASS  %s\n", p.name)
		return
	}
	fmt.Printf("FAIL  %s\n", p.name)
	for _, e := range p.errors {
		fmt.Printf("      - %s\n", e)
	}
}

func main() {
	dsn := os.Getenv("DATABASE_URL")
	if dsn == "" {
		fmt.Fprintln(os.Stderr, "FATAL: DATABASE_URL is required")
		os.Exit(1)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Minute)
	defer cancel()

	pool, err := pgxpool.New(ctx, dsn)
	if err != nil {
		fmt.Fprintf(os.Stderr, "FATAL: open pool: %v\n", err)
		os.Exit(1)
	}
	defer pool.Close()

	if err := pool.Ping(ctx); err != nil {
		fmt.Fprintf(os.Stderr, "FATAL: ping: %v\n", err)
		os.Exit(1)
	}

	os.Exit(run(ctx, pool))
}

func run(ctx context.Context, pool *pgxpool.Pool) int {
	fmt.Println("=== Dam Inventory Verification ===")
	fmt.Println()

	phases := []*phase{
		checkTableCounts(ctx, pool),
		checkIdentity(ctx, pool),
		checkReferentialIntegrity(ctx, pool),
		checkCountConsistency(ctx, pool),
	}

	reportSamples(ctx, pool)

	fmt.Println()
	failed := 0
	for _, p := range phases {
		p.report()
		if !p.passed() {
			failed++
		}
	}

	fmt.Println()
	if failed > 0 {
		fmt.Printf("%d of %d phases failed\n", failed, len(phases))
		return 1
	}
	fmt.Printf("all %d phases passed\n", len(phases))
	return 0
}

func queryInt(ctx context.Context, pool *pgxpool.Pool, p *phase, q string, args ...any) (int64, bool) {
	var n int64
	if err := pool.QueryRow(ctx, q, args...).Scan(&n); err != nil {
		p.errorf("query failed: %v", err)
		return 0, false
	}
	return n, true
}

func checkTableCounts(ctx context.Context, pool *pgxpool.Pool) *phase {
	p := &phase{name: "table counts"}
	fmt.Println("TABLE COUNTS:")
	for _, table := range []string{"dams", "states", "counties", "purposes", "owner_types"} {
		n, ok := queryInt(ctx, pool, p, "SELECT count(*) FROM "+table)
		if !ok {
			continue
		}
		fmt.Printf("  %-12s %d\n", table, n)
		if n == 0 {
			p.errorf("%s is empty", table)
		}
	}
	fmt.Println()
	return p
}

func checkIdentity(ctx context.Context, pool *pgxpool.Pool) *phase {
	p := &phase{name: "natural keys and slugs"}

	if n, ok := queryInt(ctx, pool, p,
		`SELECT count(*) FROM dams WHERE nid_id IS NULL OR nid_id = '' OR slug IS NULL OR slug = ''`); ok && n > 0 {
		p.errorf("%d dams with empty nid_id or slug", n)
	}
	if n, ok := queryInt(ctx, pool, p,
		`SELECT count(*) FROM (SELECT slug FROM dams GROUP BY slug HAVING count(*) > 1) d`); ok && n > 0 {
		p.errorf("%d duplicated dam slugs", n)
	}
	for _, table := range []string{"states", "counties", "purposes", "owner_types"} {
		if n, ok := queryInt(ctx, pool, p,
			`SELECT count(*) FROM (SELECT slug FROM `+table+` GROUP BY slug HAVING count(*) > 1) d`); ok && n > 0 {
			p.errorf("%d duplicated slugs in %s", n, table)
		}
	}
	return p
}

func checkReferentialIntegrity(ctx context.Context, pool *pgxpool.Pool) *phase {
	p := &phase{name: "referential integrity"}

	checks := []struct {
		desc string
		q    string
	}{
		{"counties with missing parent state",
			`SELECT count(*) FROM counties c LEFT JOIN states s ON s.id = c.state_id WHERE s.id IS NULL`},
		{"dams with dangling state_id",
			`SELECT count(*) FROM dams d LEFT JOIN states s ON s.id = d.state_id WHERE d.state_id IS NOT NULL AND s.id IS NULL`},
		{"dams with dangling county_id",
			`SELECT count(*) FROM dams d LEFT JOIN counties c ON c.id = d.county_id WHERE d.county_id IS NOT NULL AND c.id IS NULL`},
		{"dams with dangling primary_purpose_id",
			`SELECT count(*) FROM dams d LEFT JOIN purposes p ON p.id = d.primary_purpose_id WHERE d.primary_purpose_id IS NOT NULL AND p.id IS NULL`},
		{"dams with dangling primary_owner_type_id",
			`SELECT count(*) FROM dams d LEFT JOIN owner_types o ON o.id = d.primary_owner_type_id WHERE d.primary_owner_type_id IS NOT NULL AND o.id IS NULL`},
	}
	for _, c := range checks {
		if n, ok := queryInt(ctx, pool, p, c.q); ok && n > 0 {
			p.errorf("%d %s", n, c.desc)
		}
	}
	return p
}

// checkCountConsistency recomputes each state's counts from the primary
// table and compares them to the denormalized columns.
func checkCountConsistency(ctx context.Context, pool *pgxpool.Pool) *phase {
	p := &phase{name: "denormalized counts"}

	rows, err := pool.Query(ctx, `
		SELECT s.name, s.dam_count, s.high_hazard_count,
			(SELECT count(*) FROM dams WHERE state = s.name),
			(SELECT count(*) FROM dams WHERE state = s.name AND hazard_potential = 'High')
		FROM states s`)
	if err != nil {
		p.errorf("query failed: %v", err)
		return p
	}
	defer rows.Close()

	for rows.Next() {
		var name string
		var stored, storedHigh, actual, actualHigh int64
		if err := rows.Scan(&name, &stored, &storedHigh, &actual, &actualHigh); err != nil {
			p.errorf("scan failed: %v", err)
			return p
		}
		if stored != actual {
			p.errorf("state %s dam_count=%d but primary table has %d", name, stored, actual)
		}
		if storedHigh != actualHigh {
			p.errorf("state %s high_hazard_count=%d but primary table has %d", name, storedHigh, actualHigh)
		}
	}
	if err := rows.Err(); err != nil {
		p.errorf("iterate failed: %v", err)
	}
	return p
}

func reportSamples(ctx context.Context, pool *pgxpool.Pool) {
	fmt.Println("TOP 5 STATES BY DAM COUNT:")
	rows, err := pool.Query(ctx, `
		SELECT name, dam_count, high_hazard_count FROM states
		ORDER BY dam_count DESC LIMIT 5`)
	if err == nil {
		defer rows.Close()
		for rows.Next() {
			var name string
			var dams, high int64
			if rows.Scan(&name, &dams, &high) == nil {
				fmt.Printf("  %-20s %6d dams  %5d high hazard\n", name, dams, high)
			}
		}
	}
	fmt.Println()

	fmt.Println("HAZARD CLASSIFICATION BREAKDOWN:")
	for _, hazard := range []string{"High", "Significant", "Low", "Undetermined"} {
		var n int64
		if pool.QueryRow(ctx,
			`SELECT count(*) FROM dams WHERE hazard_potential = $1`, hazard).Scan(&n) == nil {
			fmt.Printf("  %-14s %d\n", hazard, n)
		}
	}
}
