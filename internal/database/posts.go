package database

import (
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/lib/pq"
)

const (
	selectPostColumns = "p.id, p.content, p.pinned, p.created_at, p.updated_at, " +
		"u.id, u.first_name, u.last_name, u.username, " +
		"rp.id, rp.content, ru.id, ru.username, " +
		"tp.id, tp.content, tu.id, tu.username, " +
		"COALESCE((SELECT array_agg(l.user_id::text ORDER BY l.created_at) FROM post_likes l WHERE l.post_id = p.id), '{}')"
	selectPostFrom = "FROM posts p JOIN users u ON u.id = p.posted_by " +
		"LEFT JOIN posts rp ON rp.id = p.reply_to LEFT JOIN users ru ON ru.id = rp.posted_by " +
		"LEFT JOIN posts tp ON tp.id = p.retweet_data LEFT JOIN users tu ON tu.id = tp.posted_by"
)

// postFilterClause builds the WHERE clause and its arguments for filter.
func postFilterClause(filter PostFilter) (string, []any) {
	var (
		conds []string
		args  []any
	)
	add := func(cond string, arg any) {
		args = append(args, arg)
		conds = append(conds, fmt.Sprintf(cond, len(args)))
	}

	if filter.IsReply != nil {
		if *filter.IsReply {
			conds = append(conds, "p.reply_to IS NOT NULL")
		} else {
			conds = append(conds, "p.reply_to IS NULL")
		}
	}
	if filter.Search != "" {
		add("strpos(lower(p.content), lower($%d)) > 0", filter.Search)
	}
	if filter.PostedBy != nil {
		add("p.posted_by::text = ANY($%d)", pq.Array(filter.PostedBy))
	}
	if filter.ReplyToId != "" {
		add("p.reply_to::text = $%d", filter.ReplyToId)
	}

	if len(conds) == 0 {
		return "", nil
	}

	return " WHERE " + strings.Join(conds, " AND "), args
}

func scanPost(row rowScanner) (*Post, error) {
	var (
		post                   Post
		replyId, replyContent  sql.NullString
		replyUserId, replyUser sql.NullString
		rtId, rtContent        sql.NullString
		rtUserId, rtUser       sql.NullString
		likes                  []string
	)

	err := row.Scan(
		&post.Id,
		&post.Content,
		&post.Pinned,
		&post.CreatedAt,
		&post.UpdatedAt,
		&post.PostedBy.Id,
		&post.PostedBy.FirstName,
		&post.PostedBy.LastName,
		&post.PostedBy.Username,
		&replyId,
		&replyContent,
		&replyUserId,
		&replyUser,
		&rtId,
		&rtContent,
		&rtUserId,
		&rtUser,
		pq.Array(&likes),
	)
	if err != nil {
		return nil, err
	}

	if replyId.Valid {
		post.ReplyTo = &Post{
			Id:       replyId.String,
			Content:  replyContent.String,
			PostedBy: User{Id: replyUserId.String, Username: replyUser.String},
		}
	}
	if rtId.Valid {
		post.RetweetData = &Post{
			Id:       rtId.String,
			Content:  rtContent.String,
			PostedBy: User{Id: rtUserId.String, Username: rtUser.String},
		}
	}

	post.Likes = likes
	if post.Likes == nil {
		post.Likes = make([]string, 0)
	}

	return &post, nil
}

func (db *PgSocialRepository) CreatePost(params CreatePostParams) (*Post, error) {
	var replyTo sql.NullString
	if params.ReplyToId != "" {
		replyTo = sql.NullString{String: params.ReplyToId, Valid: true}
	}

	id := uuid.NewString()
	now := time.Now().UTC()
	_, err := db.conn.Exec(
		"INSERT INTO posts (id, content, posted_by, reply_to, created_at, updated_at) "+
			"VALUES ($1, $2, $3, $4, $5, $5)",
		id,
		params.Content,
		params.PostedById,
		replyTo,
		now,
	)
	if err != nil {
		return nil, fmt.Errorf("insert post: %w", err)
	}

	return db.GetPost(id)
}

func (db *PgSocialRepository) GetPost(id string) (*Post, error) {
	if _, err := uuid.Parse(id); err != nil {
		return nil, ErrNotFound
	}

	row := db.conn.QueryRow(
		"SELECT "+selectPostColumns+" "+selectPostFrom+" WHERE p.id = $1",
		id,
	)

	return scanPost(row)
}

// ListPosts returns the posts matching filter, newest first.
func (db *PgSocialRepository) ListPosts(filter PostFilter) ([]Post, error) {
	where, args := postFilterClause(filter)
	rows, err := db.conn.Query(
		"SELECT "+selectPostColumns+" "+selectPostFrom+where+" ORDER BY p.created_at DESC",
		args...,
	)
	if err != nil {
		return nil, fmt.Errorf("query posts: %w", err)
	}
	defer rows.Close()

	posts := make([]Post, 0)
	for rows.Next() {
		post, err := scanPost(rows)
		if err != nil {
			return nil, fmt.Errorf("scan post: %w", err)
		}
		posts = append(posts, *post)
	}

	return posts, rows.Err()
}

func (db *PgSocialRepository) DeletePost(id, userId string) error {
	if _, err := uuid.Parse(id); err != nil {
		return ErrNotFound
	}

	res, err := db.conn.Exec("DELETE FROM posts WHERE id = $1 AND posted_by::text = $2", id, userId)
	if err != nil {
		return err
	}

	if n, err := res.RowsAffected(); err != nil {
		return err
	} else if n == 0 {
		return ErrNotFound
	}

	return nil
}

func (db *PgSocialRepository) postExists(id string) error {
	if _, err := uuid.Parse(id); err != nil {
		return ErrNotFound
	}

	var one int
	return db.conn.QueryRow("SELECT 1 FROM posts WHERE id = $1", id).Scan(&one)
}

// TogglePostLike likes the post, or removes the like when present, and
// reports whether the user likes it afterwards.
func (db *PgSocialRepository) TogglePostLike(postId, userId string) (bool, error) {
	if err := db.postExists(postId); err != nil {
		return false, err
	}

	res, err := db.conn.Exec(
		"DELETE FROM post_likes WHERE post_id = $1 AND user_id::text = $2",
		postId,
		userId,
	)
	if err != nil {
		return false, err
	}

	if n, err := res.RowsAffected(); err != nil {
		return false, err
	} else if n > 0 {
		return false, nil
	}

	_, err = db.conn.Exec(
		"INSERT INTO post_likes (post_id, user_id, created_at) VALUES ($1, $2, $3) ON CONFLICT DO NOTHING",
		postId,
		userId,
		time.Now().UTC(),
	)
	if err != nil {
		return false, fmt.Errorf("insert like: %w", err)
	}

	return true, nil
}

// ToggleRetweet creates the user's retweet of a post, or deletes it when it
// already exists. The new retweet is returned when one was created.
func (db *PgSocialRepository) ToggleRetweet(postId, userId string) (*Post, bool, error) {
	if err := db.postExists(postId); err != nil {
		return nil, false, err
	}

	res, err := db.conn.Exec(
		"DELETE FROM posts WHERE posted_by::text = $1 AND retweet_data = $2",
		userId,
		postId,
	)
	if err != nil {
		return nil, false, err
	}

	if n, err := res.RowsAffected(); err != nil {
		return nil, false, err
	} else if n > 0 {
		return nil, false, nil
	}

	id := uuid.NewString()
	now := time.Now().UTC()
	_, err = db.conn.Exec(
		"INSERT INTO posts (id, posted_by, retweet_data, created_at, updated_at) VALUES ($1, $2, $3, $4, $4)",
		id,
		userId,
		postId,
		now,
	)
	if err != nil {
		if IsUniqueViolation(err) {
			return nil, false, errors.New("retweet already exists")
		}
		return nil, false, fmt.Errorf("insert retweet: %w", err)
	}

	post, err := db.GetPost(id)
	if err != nil {
		return nil, false, err
	}

	return post, true, nil
}
