// Package repository implements the link registry, review store and cursor store on PostgreSQL.
package repository

import "database/sql"

// execRequireRows returns err if set, or notFoundErr when the statement touched no rows.
func execRequireRows(result sql.Result, err, notFoundErr error) error {
	if err != nil {
		return err
	}
	n, affectedErr := result.RowsAffected()
	if affectedErr != nil {
		return affectedErr
	}
	if n == 0 {
		return notFoundErr
	}
	return nil
}
