package collection

import (
	"context"
	"fmt"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/jmoiron/sqlx"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDBCollectionDecksErrors(t *testing.T) {
	tests := []struct {
		name      string
		setupMock func(mock sqlmock.Sqlmock)
		errMsg    string
	}{
		{
			name: "query error",
			setupMock: func(mock sqlmock.Sqlmock) {
				mock.ExpectQuery("SELECT decks FROM col").
					WillReturnError(fmt.Errorf("database is locked"))
			},
			errMsg: "db.GetContext(col.decks)",
		},
		{
			name: "malformed decks document",
			setupMock: func(mock sqlmock.Sqlmock) {
				rows := sqlmock.NewRows([]string{"decks"}).AddRow("not json")
				mock.ExpectQuery("SELECT decks FROM col").WillReturnRows(rows)
			},
			errMsg: "json.Unmarshal(col.decks)",
		},
		{
			name: "non-numeric deck id",
			setupMock: func(mock sqlmock.Sqlmock) {
				rows := sqlmock.NewRows([]string{"decks"}).AddRow(`{"abc": {"name": "Default"}}`)
				mock.ExpectQuery("SELECT decks FROM col").WillReturnRows(rows)
			},
			errMsg: "malformed deck id",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			db, mock, err := sqlmock.New()
			require.NoError(t, err)
			defer db.Close()

			sqlxDB := sqlx.NewDb(db, "sqlite3")
			tt.setupMock(mock)

			_, err = NewDBCollection(sqlxDB).Decks(context.Background())
			assert.ErrorContains(t, err, tt.errMsg)
			assert.NoError(t, mock.ExpectationsWereMet())
		})
	}
}

func TestDBCollectionModelsErrors(t *testing.T) {
	tests := []struct {
		name      string
		setupMock func(mock sqlmock.Sqlmock)
		errMsg    string
	}{
		{
			name: "query error",
			setupMock: func(mock sqlmock.Sqlmock) {
				mock.ExpectQuery("SELECT models FROM col").
					WillReturnError(fmt.Errorf("database is locked"))
			},
			errMsg: "db.GetContext(col.models)",
		},
		{
			name: "malformed models document",
			setupMock: func(mock sqlmock.Sqlmock) {
				rows := sqlmock.NewRows([]string{"models"}).AddRow("{{")
				mock.ExpectQuery("SELECT models FROM col").WillReturnRows(rows)
			},
			errMsg: "json.Unmarshal(col.models)",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			db, mock, err := sqlmock.New()
			require.NoError(t, err)
			defer db.Close()

			sqlxDB := sqlx.NewDb(db, "sqlite3")
			tt.setupMock(mock)

			_, err = NewDBCollection(sqlxDB).Models(context.Background())
			assert.ErrorContains(t, err, tt.errMsg)
			assert.NoError(t, mock.ExpectationsWereMet())
		})
	}
}

func TestDBCollectionCreateNoteErrors(t *testing.T) {
	tests := []struct {
		name      string
		setupMock func(mock sqlmock.Sqlmock)
		errMsg    string
	}{
		{
			name: "note insert fails",
			setupMock: func(mock sqlmock.Sqlmock) {
				mock.ExpectExec("INSERT INTO notes").
					WillReturnError(fmt.Errorf("attempt to write a readonly database"))
			},
			errMsg: "db.ExecContext(insert note)",
		},
		{
			name: "card insert fails",
			setupMock: func(mock sqlmock.Sqlmock) {
				mock.ExpectExec("INSERT INTO notes").
					WillReturnResult(sqlmock.NewResult(7, 1))
				mock.ExpectExec("INSERT INTO cards").
					WillReturnError(fmt.Errorf("attempt to write a readonly database"))
			},
			errMsg: "db.ExecContext(insert card)",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			db, mock, err := sqlmock.New()
			require.NoError(t, err)
			defer db.Close()

			sqlxDB := sqlx.NewDb(db, "sqlite3")
			tt.setupMock(mock)

			_, err = NewDBCollection(sqlxDB).CreateNote(context.Background(), 1, 2, []string{"好"})
			assert.ErrorContains(t, err, tt.errMsg)
			assert.NoError(t, mock.ExpectationsWereMet())
		})
	}
}

func TestDBCollectionMarkCardsForNoteNoCards(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	sqlxDB := sqlx.NewDb(db, "sqlite3")
	mock.ExpectExec("UPDATE cards SET data").
		WillReturnResult(sqlmock.NewResult(0, 0))

	err = NewDBCollection(sqlxDB).MarkCardsForNote(context.Background(), 42, "known")
	assert.ErrorContains(t, err, "no cards for note 42")
	assert.NoError(t, mock.ExpectationsWereMet())
}
