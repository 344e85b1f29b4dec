package postgres

import (
	"context"
	"database/sql"

	"interviewdesk/internal/domain"
)

type meetingInvitationRepository struct {
	DB *sql.DB
}

func NewMeetingInvitationRepository(db *sql.DB) domain.MeetingInvitationRepository {
	return &meetingInvitationRepository{DB: db}
}

func (r *meetingInvitationRepository) Create(ctx context.Context, inv *domain.MeetingInvitation) error {
	query := `
		INSERT INTO meeting_invitations (meeting_id, email, sent_at)
		VALUES ($1, $2, $3)
		RETURNING id
	`
	return r.DB.QueryRowContext(ctx, query, inv.MeetingID, inv.Email, inv.SentAt).Scan(&inv.ID)
}

func (r *meetingInvitationRepository) ListByMeetingID(ctx context.Context, meetingID, search string, params domain.PaginationParams) ([]*domain.MeetingInvitation, int, error) {
	pattern := "%" + search + "%"
	var total int
	countQuery := `SELECT COUNT(*) FROM meeting_invitations WHERE meeting_id = $1 AND email ILIKE $2`
	if err := r.DB.QueryRowContext(ctx, countQuery, meetingID, pattern).Scan(&total); err != nil {
		return nil, 0, err
	}
	query := `
		SELECT id, meeting_id, email, sent_at
		FROM meeting_invitations
		WHERE meeting_id = $1 AND email ILIKE $2
		ORDER BY sent_at DESC
		LIMIT $3 OFFSET $4
	`
	rows, err := r.DB.QueryContext(ctx, query, meetingID, pattern, params.PageSize, params.Offset())
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	invs := make([]*domain.MeetingInvitation, 0)
	for rows.Next() {
		inv := &domain.MeetingInvitation{}
		if err := rows.Scan(&inv.ID, &inv.MeetingID, &inv.Email, &inv.SentAt); err != nil {
			return nil, 0, err
		}
		invs = append(invs, inv)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, err
	}
	return invs, total, nil
}
