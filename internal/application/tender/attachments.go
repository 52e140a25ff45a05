package tender

import (
	"context"
	"io"
	"path"
	"strconv"
	"strings"
	"time"
	"unicode"

	"github.com/google/uuid"

	"github.com/baechuer/eprocure-portal/internal/domain"
	"github.com/baechuer/eprocure-portal/internal/logger"
)

const (
	maxFileNameLen = 128
	cleanupTimeout = 10 * time.Second
)

// AttachmentView pairs a stored attachment with a fresh signed URL.
type AttachmentView struct {
	domain.Attachment
	URL       string
	ExpiresAt time.Time
}

type UploadInput struct {
	FileName    string
	ContentType string
	Size        int64
	Body        io.Reader
}

// UploadAttachment stores bytes for the actor's own submitted proposal under
// proposals/<proposal_id>/<uuid>-<filename>.
func (s *Service) UploadAttachment(ctx context.Context, actor Actor, proposalID string, in UploadInput) (AttachmentView, error) {
	if !actor.IsSupplier() {
		return AttachmentView{}, domain.ErrInsufficientRole(string(domain.RoleSupplier))
	}
	if in.Body == nil || in.Size <= 0 {
		return AttachmentView{}, domain.ErrMissingField("file")
	}
	if in.Size > s.maxUploadSize {
		return AttachmentView{}, domain.ErrFileTooLarge(strconv.FormatInt(s.maxUploadSize, 10))
	}

	p, err := s.ownProposal(ctx, actor, proposalID)
	if err != nil {
		return AttachmentView{}, err
	}
	if p.Status != domain.ProposalSubmitted {
		return AttachmentView{}, domain.ErrInvalidTransition(string(p.Status), "attachment")
	}

	name := SanitizeFileName(in.FileName)
	contentType := strings.TrimSpace(in.ContentType)
	if contentType == "" {
		contentType = "application/octet-stream"
	}

	a := domain.Attachment{
		ID:          uuid.NewString(),
		ProposalID:  p.ID,
		FileName:    name,
		ContentType: contentType,
		Size:        in.Size,
		CreatedAt:   s.now().UTC(),
	}
	a.Key = AttachmentKey(p.ID, a.ID, name)

	body := io.LimitReader(in.Body, in.Size)
	if err := s.objects.Put(ctx, a.Key, contentType, body, in.Size); err != nil {
		return AttachmentView{}, domain.ErrStorageUnavailable(err)
	}
	if err := s.proposals.CreateAttachment(ctx, a); err != nil {
		s.discardObject(ctx, a.Key)
		return AttachmentView{}, err
	}

	return s.view(ctx, a)
}

// discardObject removes an upload whose row could not be written. It runs
// detached from the request so a cancelled client does not strand the object;
// a failed delete is logged with the key for manual cleanup.
func (s *Service) discardObject(ctx context.Context, key string) {
	dctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), cleanupTimeout)
	defer cancel()
	if err := s.objects.Delete(dctx, key); err != nil {
		logger.WithCtx(ctx).Error().Err(err).Str("object_key", key).Msg("orphaned attachment object")
	}
}

// ListAttachments is open to the proposal's supplier and to admins.
func (s *Service) ListAttachments(ctx context.Context, actor Actor, proposalID string) ([]AttachmentView, error) {
	var (
		p   domain.Proposal
		err error
	)
	switch {
	case actor.IsAdmin():
		p, err = s.proposals.GetProposal(ctx, strings.TrimSpace(proposalID))
	case actor.IsSupplier():
		p, err = s.ownProposal(ctx, actor, proposalID)
	default:
		return nil, domain.ErrForbidden()
	}
	if err != nil {
		return nil, err
	}

	as, err := s.proposals.ListAttachments(ctx, p.ID)
	if err != nil {
		return nil, err
	}

	out := make([]AttachmentView, 0, len(as))
	for _, a := range as {
		v, err := s.view(ctx, a)
		if err != nil {
			return nil, err
		}
		out = append(out, v)
	}
	return out, nil
}

func (s *Service) view(ctx context.Context, a domain.Attachment) (AttachmentView, error) {
	u, err := s.objects.SignedURL(ctx, a.Key, s.signedURLTTL)
	if err != nil {
		return AttachmentView{}, domain.ErrStorageUnavailable(err)
	}
	return AttachmentView{Attachment: a, URL: u, ExpiresAt: s.now().Add(s.signedURLTTL).UTC()}, nil
}

func AttachmentKey(proposalID, attachmentID, fileName string) string {
	return "proposals/" + proposalID + "/" + attachmentID + "-" + fileName
}

// SanitizeFileName keeps the base name and replaces anything outside
// letters, digits, dot, dash and underscore.
func SanitizeFileName(name string) string {
	name = path.Base(strings.ReplaceAll(strings.TrimSpace(name), `\`, "/"))
	var b strings.Builder
	for _, r := range name {
		switch {
		case r < unicode.MaxASCII && (unicode.IsLetter(r) || unicode.IsDigit(r)), r == '.', r == '-', r == '_':
			b.WriteRune(r)
		default:
			b.WriteByte('_')
		}
	}
	out := strings.Trim(b.String(), ".")
	if out == "" {
		out = "file"
	}
	if len(out) > maxFileNameLen {
		out = out[len(out)-maxFileNameLen:]
	}
	return out
}
