// Package gorm provides a GORM-backed AccountStore. It works with any
// database GORM supports (PostgreSQL, MySQL, SQLite, etc.) and is the store
// production deployments should use.
//
// Open the database with TranslateError enabled so unique constraint
// violations surface as gorm.ErrDuplicatedKey:
//
//	db, _ := gorm.Open(postgres.Open(dsn), &gorm.Config{TranslateError: true})
//	if err := gormstore.AutoMigrate(db); err != nil {
//	    log.Fatal(err)
//	}
//	store := gormstore.NewAccountStore(db)
package gorm
