package database

import (
	"database/sql"
	"fmt"
	"slices"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/lib/pq"
)

const (
	selectChatColumns = "c.id, c.chat_name, c.is_group_chat, c.created_at, c.updated_at, " +
		"lm.id, lm.sender_id, lm.content, lm.created_at"
	selectChatFrom    = "FROM chats c LEFT JOIN messages lm ON lm.id = c.latest_message_id"
	insertMemberQuery = "INSERT INTO chat_members (chat_id, user_id, position) VALUES ($1, $2, $3) " +
		"ON CONFLICT (chat_id, user_id) DO NOTHING"
	selectNotificationColumns = "n.id, n.notification_type, n.entity_id, n.opened, n.created_at, " +
		"ut.id, ut.first_name, ut.last_name, ut.username, " +
		"uf.id, uf.first_name, uf.last_name, uf.username"
	selectNotificationFrom = "FROM notifications n " +
		"JOIN users ut ON ut.id = n.user_to " +
		"JOIN users uf ON uf.id = n.user_from"
)

type rowScanner interface {
	Scan(dest ...any) error
}

func (db *PgSocialRepository) CreateUser(params CreateUserParams) (User, error) {
	now := time.Now().UTC()
	res := db.conn.QueryRow(
		"INSERT INTO users (id, first_name, last_name, username, email, password_hash, created_at, updated_at) "+
			"VALUES ($1, $2, $3, $4, $5, $6, $7, $7) "+
			"RETURNING id, first_name, last_name, username, email, created_at, updated_at",
		uuid.NewString(),
		params.FirstName,
		params.LastName,
		params.Username,
		params.Email,
		params.PasswordHash,
		now,
	)

	var u User
	err := res.Scan(
		&u.Id,
		&u.FirstName,
		&u.LastName,
		&u.Username,
		&u.Email,
		&u.CreatedAt,
		&u.UpdatedAt,
	)

	return u, err
}

func (db *PgSocialRepository) getUserBy(column, value string) (User, error) {
	row := db.conn.QueryRow(
		"SELECT id, first_name, last_name, username, email, password_hash, created_at, updated_at "+
			"FROM users WHERE "+column+" = $1 LIMIT 1",
		value,
	)

	var user User
	err := row.Scan(
		&user.Id,
		&user.FirstName,
		&user.LastName,
		&user.Username,
		&user.Email,
		&user.PasswordHash,
		&user.CreatedAt,
		&user.UpdatedAt,
	)

	return user, err
}

func (db *PgSocialRepository) GetUserById(id string) (User, error) {
	if _, err := uuid.Parse(id); err != nil {
		// not a valid key, so it cannot exist
		return User{}, ErrNotFound
	}
	return db.getUserBy("id", id)
}

func (db *PgSocialRepository) GetUserByEmail(email string) (User, error) {
	return db.getUserBy("email", email)
}

func (db *PgSocialRepository) GetUserByUsername(username string) (User, error) {
	return db.getUserBy("username", username)
}

func (db *PgSocialRepository) UpdatePassword(userId, passwordHash string) (User, error) {
	if _, err := uuid.Parse(userId); err != nil {
		return User{}, ErrNotFound
	}

	res := db.conn.QueryRow(
		"UPDATE users SET password_hash = $2, updated_at = $3 "+
			"WHERE id = $1 RETURNING id, first_name, last_name, username, email, created_at, updated_at",
		userId,
		passwordHash,
		time.Now().UTC(),
	)

	var u User
	err := res.Scan(
		&u.Id,
		&u.FirstName,
		&u.LastName,
		&u.Username,
		&u.Email,
		&u.CreatedAt,
		&u.UpdatedAt,
	)

	return u, err
}

func (db *PgSocialRepository) ListFollowing(userId string) ([]string, error) {
	rows, err := db.conn.Query(
		"SELECT following_id FROM follows WHERE follower_id::text = $1 ORDER BY created_at",
		userId,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	ids := make([]string, 0)
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("scan follow: %w", err)
		}
		ids = append(ids, id)
	}

	return ids, rows.Err()
}

// ToggleFollow follows targetId, or unfollows it when already followed, and
// reports whether userId follows targetId afterwards.
func (db *PgSocialRepository) ToggleFollow(userId, targetId string) (bool, error) {
	res, err := db.conn.Exec(
		"DELETE FROM follows WHERE follower_id::text = $1 AND following_id::text = $2",
		userId,
		targetId,
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
		"INSERT INTO follows (follower_id, following_id, created_at) VALUES ($1, $2, $3) "+
			"ON CONFLICT DO NOTHING",
		userId,
		targetId,
		time.Now().UTC(),
	)
	if err != nil {
		return false, fmt.Errorf("insert follow: %w", err)
	}

	return true, nil
}

func (db *PgSocialRepository) CreateChat(params CreateChatParams) (*Chat, error) {
	tx, err := db.conn.Begin()
	if err != nil {
		return nil, err
	}
	defer func() {
		if err != nil {
			tx.Rollback()
		}
	}()

	now := time.Now().UTC()
	_, err = tx.Exec(
		"INSERT INTO chats (id, chat_name, is_group_chat, created_at, updated_at) VALUES ($1, $2, $3, $4, $4)",
		params.Id,
		params.ChatName,
		params.IsGroupChat,
		now,
	)
	if err != nil {
		return nil, fmt.Errorf("insert chat: %w", err)
	}

	for i, userId := range params.UserIds {
		if _, err = tx.Exec(insertMemberQuery, params.Id, userId, i); err != nil {
			return nil, fmt.Errorf("insert chat member: %w", err)
		}
	}

	if err = tx.Commit(); err != nil {
		return nil, err
	}

	return db.getChat(params.Id)
}

func directKey(userId, otherUserId string) string {
	ids := []string{userId, otherUserId}
	slices.Sort(ids)
	return strings.Join(ids, ":")
}

// GetOrCreateDirectChat returns the one-to-one chat between the two users,
// creating it with the given id when none exists yet.
func (db *PgSocialRepository) GetOrCreateDirectChat(id, userId, otherUserId string) (*Chat, error) {
	key := directKey(userId, otherUserId)

	tx, err := db.conn.Begin()
	if err != nil {
		return nil, err
	}
	defer func() {
		if err != nil {
			tx.Rollback()
		}
	}()

	now := time.Now().UTC()
	res, err := tx.Exec(
		"INSERT INTO chats (id, is_group_chat, direct_key, created_at, updated_at) VALUES ($1, FALSE, $2, $3, $3) "+
			"ON CONFLICT (direct_key) DO NOTHING",
		id,
		key,
		now,
	)
	if err != nil {
		return nil, fmt.Errorf("upsert direct chat: %w", err)
	}

	if n, _ := res.RowsAffected(); n == 1 {
		for i, memberId := range []string{userId, otherUserId} {
			if _, err = tx.Exec(insertMemberQuery, id, memberId, i); err != nil {
				return nil, fmt.Errorf("insert chat member: %w", err)
			}
		}
	}

	var chatId string
	if err = tx.QueryRow("SELECT id FROM chats WHERE direct_key = $1", key).Scan(&chatId); err != nil {
		return nil, fmt.Errorf("select direct chat: %w", err)
	}

	if err = tx.Commit(); err != nil {
		return nil, err
	}

	return db.getChat(chatId)
}

func scanChat(row rowScanner) (*Chat, error) {
	var (
		chat            Chat
		latestId        sql.NullString
		latestSenderId  sql.NullString
		latestContent   sql.NullString
		latestCreatedAt sql.NullTime
	)

	err := row.Scan(
		&chat.Id,
		&chat.ChatName,
		&chat.IsGroupChat,
		&chat.CreatedAt,
		&chat.UpdatedAt,
		&latestId,
		&latestSenderId,
		&latestContent,
		&latestCreatedAt,
	)
	if err != nil {
		return nil, err
	}

	if latestId.Valid {
		chat.LatestMessage = &Message{
			Id:        latestId.String,
			ChatId:    chat.Id,
			SenderId:  latestSenderId.String,
			Sender:    User{Id: latestSenderId.String},
			Content:   latestContent.String,
			CreatedAt: latestCreatedAt.Time,
		}
	}

	return &chat, nil
}

// loadMembers returns the populated member list of every given chat, in join order.
func (db *PgSocialRepository) loadMembers(chatIds []string) (map[string][]User, error) {
	rows, err := db.conn.Query(
		"SELECT m.chat_id, u.id, u.first_name, u.last_name, u.username "+
			"FROM chat_members m JOIN users u ON u.id = m.user_id "+
			"WHERE m.chat_id = ANY($1) ORDER BY m.chat_id, m.position",
		pq.Array(chatIds),
	)
	if err != nil {
		return nil, fmt.Errorf("query chat members: %w", err)
	}
	defer rows.Close()

	members := make(map[string][]User, len(chatIds))
	for rows.Next() {
		var (
			chatId string
			u      User
		)
		if err := rows.Scan(&chatId, &u.Id, &u.FirstName, &u.LastName, &u.Username); err != nil {
			return nil, fmt.Errorf("scan chat member: %w", err)
		}
		members[chatId] = append(members[chatId], u)
	}

	return members, rows.Err()
}

// attachMembers sets each chat's users, never leaving them nil.
func attachMembers(chats []*Chat, members map[string][]User) {
	for _, chat := range chats {
		chat.Users = members[chat.Id]
		if chat.Users == nil {
			chat.Users = make([]User, 0)
		}
	}
}

func (db *PgSocialRepository) populateChat(chat *Chat) (*Chat, error) {
	members, err := db.loadMembers([]string{chat.Id})
	if err != nil {
		return nil, err
	}

	attachMembers([]*Chat{chat}, members)

	return chat, nil
}

func (db *PgSocialRepository) getChat(chatId string) (*Chat, error) {
	row := db.conn.QueryRow(
		"SELECT "+selectChatColumns+" "+selectChatFrom+" WHERE c.id = $1",
		chatId,
	)

	chat, err := scanChat(row)
	if err != nil {
		return nil, err
	}

	return db.populateChat(chat)
}

func (db *PgSocialRepository) GetChatForMember(chatId, userId string) (*Chat, error) {
	row := db.conn.QueryRow(
		"SELECT "+selectChatColumns+" "+selectChatFrom+" "+
			"JOIN chat_members m ON m.chat_id = c.id "+
			"WHERE c.id = $1 AND m.user_id::text = $2",
		chatId,
		userId,
	)

	chat, err := scanChat(row)
	if err != nil {
		return nil, err
	}

	return db.populateChat(chat)
}

func (db *PgSocialRepository) ListChatsForMember(userId string) ([]Chat, error) {
	rows, err := db.conn.Query(
		"SELECT "+selectChatColumns+" "+selectChatFrom+" "+
			"JOIN chat_members m ON m.chat_id = c.id "+
			"WHERE m.user_id::text = $1 ORDER BY c.updated_at DESC",
		userId,
	)
	if err != nil {
		return nil, fmt.Errorf("query chats: %w", err)
	}
	defer rows.Close()

	chats := make([]Chat, 0)
	for rows.Next() {
		chat, err := scanChat(rows)
		if err != nil {
			return nil, fmt.Errorf("scan chat: %w", err)
		}
		chats = append(chats, *chat)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	ids := make([]string, len(chats))
	for i, c := range chats {
		ids[i] = c.Id
	}

	members, err := db.loadMembers(ids)
	if err != nil {
		return nil, err
	}

	ptrs := make([]*Chat, len(chats))
	for i := range chats {
		ptrs[i] = &chats[i]
	}
	attachMembers(ptrs, members)

	return chats, nil
}

func (db *PgSocialRepository) UpdateChatName(chatId, userId, chatName string) (*Chat, error) {
	res, err := db.conn.Exec(
		"UPDATE chats SET chat_name = $3, updated_at = $4 "+
			"WHERE id = $1 AND EXISTS (SELECT 1 FROM chat_members m WHERE m.chat_id = $1 AND m.user_id::text = $2)",
		chatId,
		userId,
		chatName,
		time.Now().UTC(),
	)
	if err != nil {
		return nil, err
	}

	if n, err := res.RowsAffected(); err != nil {
		return nil, err
	} else if n == 0 {
		return nil, ErrNotFound
	}

	return db.getChat(chatId)
}

// CreateMessage stores the message and makes it the chat's latest message.
func (db *PgSocialRepository) CreateMessage(params CreateMessageParams) (*Message, error) {
	tx, err := db.conn.Begin()
	if err != nil {
		return nil, err
	}
	defer func() {
		if err != nil {
			tx.Rollback()
		}
	}()

	now := time.Now().UTC()
	msg := Message{
		Id:        uuid.NewString(),
		ChatId:    params.ChatId,
		SenderId:  params.SenderId,
		Content:   params.Content,
		CreatedAt: now,
		UpdatedAt: now,
	}

	_, err = tx.Exec(
		"INSERT INTO messages (id, chat_id, sender_id, content, created_at, updated_at) "+
			"VALUES ($1, $2, $3, $4, $5, $5)",
		msg.Id,
		msg.ChatId,
		msg.SenderId,
		msg.Content,
		now,
	)
	if err != nil {
		return nil, fmt.Errorf("insert message: %w", err)
	}

	_, err = tx.Exec(
		"UPDATE chats SET latest_message_id = $2, updated_at = $3 WHERE id = $1",
		msg.ChatId,
		msg.Id,
		now,
	)
	if err != nil {
		return nil, fmt.Errorf("update latest message: %w", err)
	}

	err = tx.QueryRow(
		"SELECT id, first_name, last_name, username FROM users WHERE id = $1",
		msg.SenderId,
	).Scan(&msg.Sender.Id, &msg.Sender.FirstName, &msg.Sender.LastName, &msg.Sender.Username)
	if err != nil {
		return nil, fmt.Errorf("select sender: %w", err)
	}

	if err = tx.Commit(); err != nil {
		return nil, err
	}

	return &msg, nil
}

func (db *PgSocialRepository) ListMessages(chatId string) ([]Message, error) {
	rows, err := db.conn.Query(
		"SELECT m.id, m.chat_id, m.content, m.created_at, m.updated_at, "+
			"u.id, u.first_name, u.last_name, u.username "+
			"FROM messages m JOIN users u ON u.id = m.sender_id "+
			"WHERE m.chat_id = $1 ORDER BY m.created_at ASC",
		chatId,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	messages := make([]Message, 0)
	for rows.Next() {
		var msg Message
		err := rows.Scan(
			&msg.Id,
			&msg.ChatId,
			&msg.Content,
			&msg.CreatedAt,
			&msg.UpdatedAt,
			&msg.Sender.Id,
			&msg.Sender.FirstName,
			&msg.Sender.LastName,
			&msg.Sender.Username,
		)
		if err != nil {
			return nil, fmt.Errorf("scan message: %w", err)
		}
		msg.SenderId = msg.Sender.Id
		messages = append(messages, msg)
	}

	return messages, rows.Err()
}

func (db *PgSocialRepository) CreateNotification(params CreateNotificationParams) error {
	_, err := db.conn.Exec(
		"INSERT INTO notifications (id, user_to, user_from, notification_type, entity_id, created_at) "+
			"VALUES ($1, $2, $3, $4, $5, $6)",
		uuid.NewString(),
		params.UserToId,
		params.UserFromId,
		params.NotificationType,
		params.EntityId,
		time.Now().UTC(),
	)

	return err
}

func scanNotification(row rowScanner) (*Notification, error) {
	var n Notification
	err := row.Scan(
		&n.Id,
		&n.NotificationType,
		&n.EntityId,
		&n.Opened,
		&n.CreatedAt,
		&n.UserTo.Id,
		&n.UserTo.FirstName,
		&n.UserTo.LastName,
		&n.UserTo.Username,
		&n.UserFrom.Id,
		&n.UserFrom.FirstName,
		&n.UserFrom.LastName,
		&n.UserFrom.Username,
	)
	if err != nil {
		return nil, err
	}

	return &n, nil
}

// ListNotifications returns the user's notifications, newest first, leaving
// out new message notifications which are only ever counted.
func (db *PgSocialRepository) ListNotifications(userId string, unreadOnly bool) ([]Notification, error) {
	query := "SELECT " + selectNotificationColumns + " " + selectNotificationFrom + " " +
		"WHERE n.user_to::text = $1 AND n.notification_type <> $2"
	if unreadOnly {
		query += " AND n.opened = FALSE"
	}
	query += " ORDER BY n.created_at DESC"

	rows, err := db.conn.Query(query, userId, NotificationNewMessage)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	notifications := make([]Notification, 0)
	for rows.Next() {
		n, err := scanNotification(rows)
		if err != nil {
			return nil, fmt.Errorf("scan notification: %w", err)
		}
		notifications = append(notifications, *n)
	}

	return notifications, rows.Err()
}

func (db *PgSocialRepository) MarkNotificationOpened(id, userId string) (*Notification, error) {
	if _, err := uuid.Parse(id); err != nil {
		return nil, ErrNotFound
	}

	res, err := db.conn.Exec(
		"UPDATE notifications SET opened = TRUE WHERE id = $1 AND user_to::text = $2",
		id,
		userId,
	)
	if err != nil {
		return nil, err
	}

	if n, err := res.RowsAffected(); err != nil {
		return nil, err
	} else if n == 0 {
		return nil, ErrNotFound
	}

	row := db.conn.QueryRow(
		"SELECT "+selectNotificationColumns+" "+selectNotificationFrom+" WHERE n.id = $1",
		id,
	)

	return scanNotification(row)
}

func (db *PgSocialRepository) MarkAllNotificationsOpened(userId string) error {
	_, err := db.conn.Exec(
		"UPDATE notifications SET opened = TRUE WHERE user_to::text = $1 AND opened = FALSE",
		userId,
	)

	return err
}

func (db *PgSocialRepository) CountUnreadNotifications(userId string) (NotificationCounts, error) {
	var counts NotificationCounts
	err := db.conn.QueryRow(
		"SELECT "+
			"COUNT(*) FILTER (WHERE notification_type = $2), "+
			"COUNT(*) FILTER (WHERE notification_type = ANY($3)) "+
			"FROM notifications WHERE user_to::text = $1 AND opened = FALSE",
		userId,
		NotificationNewMessage,
		pq.Array([]string{NotificationPostLike, NotificationFollow, NotificationRetweet}),
	).Scan(&counts.NewMessage, &counts.Other)

	return counts, err
}
