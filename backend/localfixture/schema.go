package localfixture

const schema = `
CREATE TABLE IF NOT EXISTS users (
    id            TEXT PRIMARY KEY,
    username      TEXT NOT NULL UNIQUE,
    password_hash TEXT NOT NULL,
    role          TEXT NOT NULL,
    surname       TEXT NOT NULL DEFAULT '',
    lastname      TEXT NOT NULL DEFAULT '',
    member_id     TEXT NOT NULL DEFAULT '',
    phone_number  TEXT NOT NULL DEFAULT '',
    tg_username   TEXT NOT NULL DEFAULT '',
    level         TEXT NOT NULL DEFAULT '',
    course        TEXT NOT NULL DEFAULT '',
    direction     TEXT NOT NULL DEFAULT '',
    photo         TEXT NOT NULL DEFAULT '',
    qr_code       TEXT NOT NULL DEFAULT '',
    coins         INTEGER NOT NULL DEFAULT 0,
    is_active     INTEGER NOT NULL DEFAULT 1,
    created_at    DATETIME NOT NULL,
    updated_at    DATETIME NOT NULL
);
`
